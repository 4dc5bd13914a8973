package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/thereayou/wallet-profile/internal/apperr"
	"github.com/thereayou/wallet-profile/internal/database"
	"github.com/thereayou/wallet-profile/internal/export"
	"github.com/thereayou/wallet-profile/internal/handlers/dto"
	"github.com/thereayou/wallet-profile/internal/middleware"
	"github.com/thereayou/wallet-profile/internal/models"
	"github.com/thereayou/wallet-profile/internal/sanitize"
	"github.com/thereayou/wallet-profile/internal/services"
	"github.com/thereayou/wallet-profile/internal/storage"
	"github.com/thereayou/wallet-profile/internal/websocket"
	"github.com/thereayou/wallet-profile/pkg/wallet"
	"go.uber.org/zap"
)

const exportFilename = "users.csv"

// Поля профиля, которые можно заменить загруженным файлом
var uploadFields = []string{"avatar", "background"}

type UserHandler struct {
	users          services.UserRepository
	sessions       services.SessionStore
	files          services.FileStore
	ages           services.AgeEstimator
	notifier       services.Notifier
	exporter       *export.Exporter
	maxUploadBytes int64
	log            *zap.Logger
}

type UserHandlerOptions struct {
	Users          services.UserRepository
	Sessions       services.SessionStore
	Files          services.FileStore
	Ages           services.AgeEstimator
	Notifier       services.Notifier
	Exporter       *export.Exporter
	MaxUploadBytes int64
	Log            *zap.Logger
}

func NewUserHandler(opts UserHandlerOptions) *UserHandler {
	return &UserHandler{
		users:          opts.Users,
		sessions:       opts.Sessions,
		files:          opts.Files,
		ages:           opts.Ages,
		notifier:       opts.Notifier,
		exporter:       opts.Exporter,
		maxUploadBytes: opts.MaxUploadBytes,
		log:            opts.Log,
	}
}

// ListUsers возвращает всех пользователей (address, nickname, email, created_at)
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if users == nil {
		users = []models.UserSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ExportUsers отдаёт тот же список CSV-файлом; файл удаляется с диска после задержки
func (h *UserHandler) ExportUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	path, err := h.exporter.WriteUsers(users)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.exporter.ScheduleRemoval(path)

	c.FileAttachment(path, exportFilename)
}

// CreateUser регистрирует кошелёк
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.BadRequest(err.Error()))
		return
	}

	address, err := wallet.NormalizeAddress(req.Address)
	if err != nil {
		_ = c.Error(apperr.BadRequest(err.Error()))
		return
	}

	user := &models.User{
		Address: address,
		Nonce:   uuid.NewString(),
	}
	if err := h.users.SaveUser(c.Request.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicateAddress) {
			_ = c.Error(apperr.Conflict(err.Error()))
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, formatUserResponse(user))
}

// GetUser возвращает публичный профиль по адресу
func (h *UserHandler) GetUser(c *gin.Context) {
	address, err := wallet.NormalizeAddress(c.Param("address"))
	if err != nil {
		_ = c.Error(apperr.BadRequest(err.Error()))
		return
	}

	user, err := h.users.GetUserByAddress(c.Request.Context(), address)
	if err != nil {
		_ = c.Error(notFoundOr(err))
		return
	}

	c.JSON(http.StatusOK, formatUserResponse(user))
}

// UpdateUser обновляет профиль владельца адреса. Файлы avatar/background
// загружаются в хранилище, ошибка загрузки возвращается в upload_errors.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()

	address, err := wallet.NormalizeAddress(c.Param("address"))
	if err != nil {
		_ = c.Error(apperr.BadRequest(err.Error()))
		return
	}

	if middleware.CurrentAddress(c) != address {
		_ = c.Error(apperr.Forbidden("you can only update your own profile"))
		return
	}

	if _, err := h.users.GetUserByAddress(ctx, address); err != nil {
		_ = c.Error(notFoundOr(err))
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	fields := make(map[string]interface{})
	if req.Nickname != nil {
		fields["nickname"] = sanitize.Nickname(*req.Nickname)
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.Avatar != nil {
		fields["avatar"] = *req.Avatar
	}
	if req.Background != nil {
		fields["background"] = *req.Background
	}

	uploadErrors := make(map[string]string)
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		objects, closeAll, err := h.collectUploads(c)
		if err != nil {
			_ = c.Error(bindError(err))
			return
		}
		defer closeAll()

		for _, res := range h.upload(c, address, objects) {
			if res.Err != nil {
				h.log.Warn("profile upload failed", zap.String("address", address), zap.String("field", res.Field), zap.Error(res.Err))
				uploadErrors[res.Field] = res.Err.Error()
				continue
			}
			fields[res.Field] = res.URL
		}
	}

	if len(fields) == 0 {
		if len(uploadErrors) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update", "upload_errors": uploadErrors})
			return
		}
		_ = c.Error(apperr.BadRequest("nothing to update"))
		return
	}

	user, err := h.users.UpdateUserFields(ctx, address, fields)
	if err != nil {
		_ = c.Error(notFoundOr(err))
		return
	}

	h.refreshSession(c, user)
	h.notify(user.Address, websocket.TypeUserUpdated, formatUserResponse(user))

	resp := formatUserResponse(user)
	if len(uploadErrors) > 0 {
		resp["upload_errors"] = uploadErrors
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) collectUploads(c *gin.Context) ([]storage.Object, func(), error) {
	var (
		objects []storage.Object
		opened  []multipart.File
	)
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, field := range uploadFields {
		header, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)

		objects = append(objects, storage.Object{
			Field:       field,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        f,
		})
	}

	return objects, closeAll, nil
}

func (h *UserHandler) upload(c *gin.Context, address string, objects []storage.Object) []storage.Result {
	if len(objects) == 0 {
		return nil
	}
	if h.files == nil {
		results := make([]storage.Result, len(objects))
		for i, obj := range objects {
			results[i] = storage.Result{Field: obj.Field, Err: errStorageDisabled}
		}
		return results
	}
	return h.files.UploadAll(c.Request.Context(), address, objects)
}

func (h *UserHandler) refreshSession(c *gin.Context, user *models.User) {
	if err := h.sessions.Refresh(c.Request.Context(), user); err != nil {
		h.log.Warn("failed to refresh session", zap.String("address", user.Address), zap.Error(err))
	}
}

func (h *UserHandler) notify(address string, event websocket.MessageType, payload interface{}) {
	if h.notifier != nil {
		h.notifier.NotifyUser(address, string(event), payload)
	}
}

var errStorageDisabled = errors.New("file storage is not configured")

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.New(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return apperr.BadRequest(err.Error())
}

func notFoundOr(err error) error {
	if errors.Is(err, database.ErrUserNotFound) {
		return apperr.NotFound(err.Error())
	}
	return err
}

// formatUserResponse публичное представление пользователя, без nonce
func formatUserResponse(user *models.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"address":      user.Address,
		"nickname":     user.Nickname,
		"email":        user.Email,
		"avatar":       user.Avatar,
		"background":   user.Background,
		"age_verified": user.AgeVerified,
		"created_at":   user.CreatedAt,
	}
}
