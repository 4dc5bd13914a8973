package dto

type CreateUserRequest struct {
	Address string `json:"address" binding:"required"`
}

// UpdateUserRequest принимается и как JSON, и как multipart/form-data.
// nil означает, что поле не передано.
type UpdateUserRequest struct {
	Nickname   *string `json:"nickname" form:"nickname" binding:"omitempty,max=64"`
	Email      *string `json:"email" form:"email" binding:"omitempty,email"`
	// ссылки задаются отдельными полями: имена avatar/background заняты файлами в multipart
	Avatar     *string `json:"avatar_url" form:"avatar_url" binding:"omitempty,url"`
	Background *string `json:"background_url" form:"background_url" binding:"omitempty,url"`
}

type AgeVerificationRequest struct {
	Image string `json:"image"`
}
