package rest

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"file-share-api/internal/application/ports"
	domain "file-share-api/internal/domain/file"
	"file-share-api/internal/infrastructure/jwt"
	"file-share-api/internal/interface/api/rest/dto/file"
	"file-share-api/internal/interface/api/rest/middleware"
	"file-share-api/internal/interface/api/rest/validator"
)

// multipartOverhead covers boundaries and the text fields on top of the file itself.
const multipartOverhead = int64(1 << 20)

type FileController struct {
	fileService  ports.FileService
	logger       *zap.Logger
	maxBodyBytes int64
}

func NewFileController(
	r *gin.Engine,
	fileService ports.FileService,
	logger *zap.Logger,
	jwtService *jwt.Service,
	maxFileBytes int64,
) *FileController {
	fc := &FileController{
		fileService:  fileService,
		logger:       logger,
		maxBodyBytes: maxFileBytes + multipartOverhead,
	}

	g := r.Group(RouteFiles, middleware.AuthMiddleware(jwtService))
	g.POST("/upload", fc.UploadHandler)
	g.GET("", fc.ListHandler)
	g.GET("/:id", fc.GetHandler)
	g.GET("/:id/download", fc.DownloadHandler)
	g.PUT("/:id", fc.UpdateHandler)
	g.DELETE("/:id", fc.DeleteHandler)

	return fc
}

func (fc *FileController) UploadHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, fc.maxBodyBytes)
	mr, err := c.Request.MultipartReader()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"message": "request must be multipart/form-data",
		})
		return
	}

	res, err := fc.fileService.Upload(c.Request.Context(), actor, mr)
	if err != nil {
		respondError(c, fc.logger, "Upload()", err)
		return
	}

	c.JSON(http.StatusCreated, file.Envelope{
		Message: "File uploaded successfully",
		File:    file.ToResponseFile(*res.Record),
	})
}

func (fc *FileController) ListHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	page, err := validator.ValidatePage(c.Query("page"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := validator.ValidateLimit(c.Query("limit"), domain.DefaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rp, err := fc.fileService.List(c.Request.Context(), actor, domain.NewPage(page, limit))
	if err != nil {
		respondError(c, fc.logger, "List()", err)
		return
	}

	c.JSON(http.StatusOK, file.ToListResponse(rp))
}

func (fc *FileController) GetHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := fc.fileID(c)
	if !ok {
		return
	}

	rec, err := fc.fileService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, fc.logger, "Get()", err)
		return
	}

	c.JSON(http.StatusOK, file.Envelope{File: file.ToResponseFile(*rec)})
}

func (fc *FileController) DownloadHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := fc.fileID(c)
	if !ok {
		return
	}

	dl, err := fc.fileService.Download(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, fc.logger, "Download()", err)
		return
	}
	defer dl.Body.Close()

	c.Header("Content-Type", dl.Record.MimeType)
	c.Header("Content-Disposition", contentDisposition(dl.Record.OriginalName))
	if dl.Record.SizeBytes > 0 {
		c.Header("Content-Length", strconv.FormatInt(dl.Record.SizeBytes, 10))
	}
	c.Status(http.StatusOK)

	// headers are gone at this point, a broken stream can only be logged
	if _, err = io.Copy(c.Writer, dl.Body); err != nil {
		fc.logger.Warn("download stream interrupted",
			zap.String("file_id", dl.Record.ID.String()),
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.Error(err),
		)
	}
}

func (fc *FileController) UpdateHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := fc.fileID(c)
	if !ok {
		return
	}

	var req file.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}

	rec, err := fc.fileService.Update(c.Request.Context(), actor, id, file.ToDomainPatch(req))
	if err != nil {
		respondError(c, fc.logger, "Update()", err)
		return
	}

	c.JSON(http.StatusOK, file.Envelope{
		Message: "File updated successfully",
		File:    file.ToResponseFile(*rec),
	})
}

func (fc *FileController) DeleteHandler(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := fc.fileID(c)
	if !ok {
		return
	}

	if err := fc.fileService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, fc.logger, "Delete()", err)
		return
	}

	c.JSON(http.StatusOK, file.DeleteResponse{
		Message: "File deleted successfully",
		FileID:  id,
	})
}

func (fc *FileController) fileID(c *gin.Context) (domain.ID, bool) {
	ok, id := validator.IsUUID(c.Param("id"))
	if !ok {
		respondError(c, fc.logger, "fileID()", domain.ErrInvalidIdentifier)
		return domain.ID{}, false
	}
	return id, true
}

func mustActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return domain.Actor{}, false
	}
	return actor, true
}

var dispositionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")

// contentDisposition always quotes the name and adds the RFC 5987 form for
// non-ASCII names.
func contentDisposition(name string) string {
	v := `attachment; filename="` + dispositionEscaper.Replace(name) + `"`
	for _, r := range name {
		if r > unicode.MaxASCII {
			return v + "; filename*=UTF-8''" + url.PathEscape(name)
		}
	}
	return v
}
