package studio

import (
	"fmt"
	"strings"

	"tmmedia/internal/model/studio"
	"tmmedia/internal/pkg/generation/providers"
)

// 剧本语言
const (
	LanguageVietnamese = "Vietnamese"
	LanguageEnglish    = "English"
)

const (
	minDetectLength   = 20
	detectSampleRunes = 500
	summaryFallback   = 1000
	thumbnailScript   = 1000
)

func detectLanguagePrompt(script string) string {
	return "Detect the primary language of the following text. Respond with only the language name in English (e.g., \"Vietnamese\", \"English\").\n\nTEXT:\n---\n" +
		truncateRunes(script, detectSampleRunes) + "\n---"
}

// parseLanguage 回答中包含 english 视为英文，其余按越南语处理
func parseLanguage(answer string) string {
	if strings.Contains(strings.ToLower(answer), "english") {
		return LanguageEnglish
	}
	return LanguageVietnamese
}

func extractPrompt(script, language string) string {
	if providers.IsVietnamese(language) {
		return fmt.Sprintf(extractTemplateVI, script)
	}
	return fmt.Sprintf(extractTemplateEN, script)
}

const extractSchema = `{
  "setting": {
    "place": "", "time": "", "weather": "", "season": "", "mood": "", "socialContext": "",
    "theme": { "centralIdea": "", "thematicQuestion": "" }
  },
  "characters": [
    { "name": "", "isMain": false, "goal": "", "motivation": "", "conflict": "",
      "appearanceAndBehavior": "", "backstory": "", "characterArc": "" }
  ]
}`

var extractTemplateEN = `As a professional cinematographer and script analyst, read the following script carefully and extract extremely accurate details about its setting so the generated images stay true to reality.

Identify the MAXIMUM number of 'characters'. A character is any element that can become the focus of an artistic or technical shot:
1. Mechanical entities and vehicles, broken down into parts (main wing, engine no. 2, landing gear, cockpit).
2. People with a name or a role (pilot, controller, witness).
3. Specific systems and components (gear lever, control panel, black box, pressure gauge).
4. Environments and locations (runway 22L, terminal C, a specific storm cloud).
5. Forces and organizations (rescue team, NTSB, the airline).
6. Visualizable abstract concepts (metal fatigue, decreasing cabin pressure, leaking fuel).

"time" holds the exact date and time of the event. "isMain" is true for central characters. "appearanceAndBehavior" must be detailed enough to build a 3D model.

Return a SINGLE JSON object with this structure:
` + extractSchema + `

SCRIPT:
---
%s
---
Return only the JSON object, with no explanation. Make the character list as long and detailed as possible.`

var extractTemplateVI = `Với tư cách là đạo diễn hình ảnh và nhà phân tích kịch bản chuyên nghiệp, hãy đọc kỹ kịch bản sau và trích xuất chi tiết bối cảnh thật chính xác để hình ảnh được tạo ra sát với thực tế.

Xác định số lượng 'nhân vật' TỐI ĐA. Nhân vật là bất kỳ yếu tố nào có thể trở thành tâm điểm của một cảnh quay nghệ thuật hoặc kỹ thuật:
1. Thực thể cơ khí và phương tiện, chia nhỏ thành bộ phận (cánh chính, động cơ số 2, bộ phận hạ cánh, buồng lái).
2. Con người có tên hoặc vai trò (phi công, kiểm soát viên, nhân chứng).
3. Hệ thống và linh kiện cụ thể (cần gạt càng, bảng điều khiển, hộp đen, đồng hồ áp suất).
4. Môi trường và địa điểm (đường băng 22L, nhà ga C, một đám mây bão cụ thể).
5. Lực lượng và tổ chức (đội cứu hộ, NTSB, hãng hàng không).
6. Khái niệm trừu tượng có thể hình ảnh hóa (sự mỏi kim loại, áp suất cabin giảm, nhiên liệu rò rỉ).

"time" là ngày giờ chính xác của sự kiện. "isMain" là true với nhân vật trung tâm. "appearanceAndBehavior" phải đủ chi tiết để dựng mô hình 3D.

Trả về MỘT đối tượng JSON duy nhất theo cấu trúc:
` + extractSchema + `

KỊCH BẢN:
---
%s
---
Chỉ trả về đối tượng JSON, không kèm giải thích. Danh sách nhân vật càng dài và chi tiết càng tốt.`

// contextPrompt 由背景设定组装背景图提示词
func contextPrompt(s *studio.Setting, language string) string {
	if s == nil {
		return ""
	}
	if providers.IsVietnamese(language) {
		return fmt.Sprintf("Bối cảnh chính: %s vào %s. Thời tiết: %s (%s). Bầu không khí %s.", s.Place, s.Time, s.Weather, s.Season, s.Mood)
	}
	return fmt.Sprintf("Main setting: %s at %s. Weather: %s (%s). Mood %s.", s.Place, s.Time, s.Weather, s.Season, s.Mood)
}

// withContext 在指令后附加背景提示词
func withContext(instruction, ctxPrompt, language string) string {
	instruction = strings.TrimSpace(instruction)
	if strings.TrimSpace(ctxPrompt) == "" {
		return instruction
	}
	label := "Context"
	if providers.IsVietnamese(language) {
		label = "Bối cảnh"
	}
	return fmt.Sprintf("%s. %s: %s", strings.TrimSuffix(instruction, "."), label, ctxPrompt)
}

func summaryPrompt(script, language string) string {
	return fmt.Sprintf(`Please summarize the following script in a few sentences to provide context for generating video scenes. This is for a technical documentary about an aviation incident. Focus on the key events and technical aspects. The summary should be in %s.

SCRIPT:
---
%s
---

Return only the summary text.`, language, script)
}

// summaryFallbackText 摘要失败时截取剧本开头
func summaryFallbackText(script string) string {
	return truncateRunes(script, summaryFallback) + "..."
}

func videoPrompt(scene, summary string, mains []studio.Character, language string) string {
	profiles := make([]string, 0, len(mains))
	for _, c := range mains {
		profiles = append(profiles, fmt.Sprintf("- %s: %s", c.Name, c.AppearanceAndBehavior))
	}
	tmpl := videoTemplateEN
	if providers.IsVietnamese(language) {
		tmpl = videoTemplateVI
	}
	return fmt.Sprintf(tmpl, summary, strings.Join(profiles, "\n"), scene)
}

func videoFallback(scene, language string) string {
	if providers.IsVietnamese(language) {
		return fmt.Sprintf("Một video clip tài liệu kỹ thuật về %q, tập trung vào các chi tiết máy móc, với các lớp phủ đồ họa thông tin giải thích những gì đang xảy ra.", scene)
	}
	return fmt.Sprintf("A technical documentary video clip about %q, focusing on mechanical details, with informational graphic overlays explaining what is happening.", scene)
}

const videoTemplateEN = `You are a creative director for a technical documentary series. Create a single, compelling video prompt for a specific scene.

Overall story context (summary):
%s

Relevant main characters:
%s

Current scene description:
"%s"

Keyframe image for this scene: [IMAGE PROVIDED]

Based on the summary, the characters, the scene description and the image, write a SINGLE detailed prompt for a short video clip (around 5-10 seconds). The prompt must be in English and specify the camera (angle and movement), the action, the atmosphere and the visual style, keeping the hyper-realistic documentary look with informational graphic overlays.

Return ONLY the video prompt as a single string of text.`

const videoTemplateVI = `Bạn là đạo diễn sáng tạo cho một loạt phim tài liệu kỹ thuật. Hãy tạo một prompt video duy nhất cho một cảnh cụ thể.

Bối cảnh câu chuyện (tóm tắt):
%s

Các nhân vật chính liên quan:
%s

Mô tả cảnh hiện tại:
"%s"

Hình ảnh khung hình chính cho cảnh này: [HÌNH ẢNH ĐƯỢC CUNG CẤP]

Dựa trên tóm tắt, nhân vật, mô tả cảnh và hình ảnh, hãy viết MỘT prompt chi tiết cho một video clip ngắn (khoảng 5-10 giây). Prompt phải bằng tiếng Việt và chỉ rõ góc máy (góc quay và chuyển động), hành động, không khí và phong cách hình ảnh, giữ phong cách tài liệu siêu thực với lớp phủ đồ họa thông tin.

CHỈ trả về prompt video dưới dạng một chuỗi văn bản duy nhất.`

// thumbnailPrompt 缩略图指令；风格后缀由生成器追加
func thumbnailPrompt(topic, script string, chars []studio.Character, language string) string {
	vi := providers.IsVietnamese(language)

	var b strings.Builder
	if vi {
		fmt.Fprintf(&b, "Phân tích các hình tham khảo phong cách. Tạo một thumbnail YouTube chất lượng 4K, kịch tính cho video có chủ đề %q. Thumbnail phải khớp với phong cách tham khảo.", topic)
	} else {
		fmt.Fprintf(&b, "Analyze the style reference images. Create a dramatic, 4K-quality YouTube thumbnail for a video on the topic of %q. The thumbnail must match the reference style.", topic)
	}

	lowerTopic := strings.ToLower(topic)
	var featured []string
	for _, c := range chars {
		if c.Name != "" && strings.Contains(lowerTopic, strings.ToLower(c.Name)) {
			featured = append(featured, c.Name+": "+c.AppearanceAndBehavior)
		}
	}
	if len(featured) > 0 {
		if vi {
			fmt.Fprintf(&b, "\nNhân vật nổi bật: %s.", strings.Join(featured, "; "))
		} else {
			fmt.Fprintf(&b, "\nFeatured characters: %s.", strings.Join(featured, "; "))
		}
	}

	script = truncateRunes(script, thumbnailScript)
	if vi {
		fmt.Fprintf(&b, "\n\nTiêu đề chính trên thumbnail phải lớn, rõ ràng, màu vàng với viền đen. Bối cảnh nên dựa trên nội dung kịch bản sau: %s", script)
	} else {
		fmt.Fprintf(&b, "\n\nThe main title on the thumbnail should be large, clear, yellow with a black outline. The context should be based on the following script content: %s", script)
	}
	return b.String()
}

// stripJSONFence 去掉模型回答外层的 ```json 代码块
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
