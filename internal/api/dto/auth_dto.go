package dto

type LoginDTO struct {
	Username string `json:"username" binding:"required" validate:"min=3,max=32"`
	Password string `json:"password" binding:"required" validate:"min=6,max=64"`
}

type TokenDTO struct {
	Token string `json:"token"`
}
