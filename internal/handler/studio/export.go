package studio

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "tmmedia/internal/pkg/http"
)

const maxImportSize = 64 << 20

// ExportProject 导出项目文件
// @Summary      导出项目
// @Description  下载 gzip 压缩的项目文件（.tmproj）
// @Tags         项目管理
// @Produce      application/gzip
// @Param        id   path      string  true  "项目ID"
// @Success      200  {file}    file    "项目文件"
// @Failure      404  {object}  ErrorResponse  "项目不存在"
// @Router       /api/v1/projects/{id}/export [get]
func (h *Handler) ExportProject(c *gin.Context) {
	file, err := h.studioService.ExportProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, "application/gzip", file.Data)
}

// ImportProject 导入项目文件
// @Summary      导入项目
// @Description  上传导出的项目文件，支持 multipart 字段 file 或直接作为请求体
// @Tags         项目管理
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  false  "项目文件"
// @Success      201   {object}  map[string]interface{}  "成功响应"
// @Failure      400   {object}  ErrorResponse  "文件格式错误"
// @Router       /api/v1/projects/import [post]
func (h *Handler) ImportProject(c *gin.Context) {
	data, err := readImport(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    httputil.CodeInvalidFile,
			Message: "Failed to read project file",
			Detail:  err.Error(),
		})
		return
	}

	view, err := h.studioService.ImportProject(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "项目导入成功", view)
}

// readImport 读取 multipart 文件或原始请求体
func readImport(c *gin.Context) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImportSize))
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
}
