package providers

import (
	"fmt"
	"strings"

	"tmmedia/internal/model/studio"
)

const (
	defaultOverlayDate = "NOVEMBER 2ND, 1993"
	defaultOverlayTime = "5:13 PM EST"
)

// IsVietnamese 判断剧本语言是否为越南语（空值按越南语处理）
func IsVietnamese(language string) bool {
	lang := strings.ToLower(strings.TrimSpace(language))
	return lang == "" || lang == "vietnamese"
}

// OverlayDateTime 从背景设定的 time 字段（"日期, 时间"）中取出信息框的日期与时间
func OverlayDateTime(setting *studio.Setting) (string, string) {
	date, clock := defaultOverlayDate, defaultOverlayTime
	if setting == nil || strings.TrimSpace(setting.Time) == "" {
		return date, clock
	}

	parts := strings.SplitN(setting.Time, ",", 3)
	if v := strings.TrimSpace(parts[0]); v != "" {
		date = v
	}
	if len(parts) > 1 {
		if v := strings.TrimSpace(parts[1]); v != "" {
			clock = v
		}
	}
	return strings.ToUpper(date), strings.ToUpper(clock)
}

// StyleSuffix 返回附加在所有图片指令之后的纪录片风格指南
func StyleSuffix(setting *studio.Setting, language string) string {
	date, clock := OverlayDateTime(setting)
	if IsVietnamese(language) {
		return fmt.Sprintf(styleGuideVI, date, clock)
	}
	return fmt.Sprintf(styleGuideEN, date, clock)
}

const styleGuideEN = `**STYLE GUIDE (MANDATORY): "Aviation Accident Investigation Documentary"**
Pick exactly ONE overlay style below that best fits the prompt. Do not combine styles unless asked.
1. Core look: clean photorealistic 3D CGI, serious and cinematic like a still from a high-end investigation documentary. Dramatic dusk, dawn or night lighting with fog, smoke, rain or low cloud. Wide, striking camera angles. For technical close-ups the background may fall away into dark wireframe or blur.
2. Overlays (rendered into the image):
   A) FULL LAYOUT for key moments: a full-width black title bar with white ALL CAPS text "CATEGORY - DETAIL"; a bottom-left black box with a thick yellow border reading "DATE: %s" and "TIME: %s"; a small white four-pointed star logo bottom-right.
   B) ANNOTATION LABELS for technical details: yellow ALL CAPS text, or white text in a black box, joined to the part by thin light leader lines.
   C) FLIGHT PATH MAP: satellite map, thick bright yellow route between glowing endpoints, boxed ALL CAPS title and data labels.
   D) X-RAY CUTAWAY for aircraft internals: transparent shell with glowing highlighted systems plus annotation labels.
   E) 3D DATA DISPLAY for distances and altitudes: bold glowing holographic numbers that follow the scene perspective.
   F) GLOWING SILHOUETTES for people: anonymous figures without facial detail.
3. All overlay text must be in English, sharp and legible. No watermarks.`

const styleGuideVI = `**HƯỚNG DẪN PHONG CÁCH (BẮT BUỘC): "Phim tài liệu điều tra tai nạn hàng không"**
Chọn đúng MỘT kiểu đồ họa phù hợp nhất với prompt. Không kết hợp nhiều kiểu trừ khi được yêu cầu.
1. Thẩm mỹ cốt lõi: dựng hình 3D CGI chân thực, sạch sẽ, nghiêm túc và điện ảnh như khung hình phim tài liệu điều tra cao cấp. Ánh sáng hoàng hôn, bình minh hoặc ban đêm, có sương mù, khói, mưa hoặc mây thấp. Góc máy rộng, ấn tượng. Với cận cảnh kỹ thuật, nền có thể chuyển thành khung dây tối hoặc làm mờ.
2. Lớp phủ đồ họa (vẽ trực tiếp lên ảnh):
   A) BỐ CỤC ĐẦY ĐỦ cho các thời điểm quan trọng: thanh tiêu đề đen toàn chiều ngang, chữ trắng IN HOA "HẠNG MỤC - CHI TIẾT"; hộp đen viền vàng dày ở góc dưới trái ghi "DATE: %s" và "TIME: %s"; logo ngôi sao bốn cánh màu trắng ở góc dưới phải.
   B) NHÃN CHÚ THÍCH cho chi tiết kỹ thuật: chữ vàng IN HOA hoặc chữ trắng trong hộp đen, nối với bộ phận bằng đường dẫn mảnh màu sáng.
   C) BẢN ĐỒ ĐƯỜNG BAY: bản đồ vệ tinh, đường bay vàng đậm giữa hai điểm phát sáng, tiêu đề và dữ liệu IN HOA trong hộp.
   D) CHẾ ĐỘ X-QUANG cho bên trong máy bay: vỏ trong suốt, các hệ thống được tô sáng kèm nhãn chú thích.
   E) HIỂN THỊ DỮ LIỆU 3D cho khoảng cách và độ cao: số liệu phát sáng dạng hologram theo phối cảnh cảnh quay.
   F) HÌNH BÓNG PHÁT SÁNG cho con người: nhân vật ẩn danh, không có chi tiết khuôn mặt.
3. Chữ trên lớp phủ phải sắc nét, dễ đọc. Không có hình mờ.`
