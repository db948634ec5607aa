package service

import (
	"Watchtower/internal/api/config"
	"Watchtower/internal/pkg/consts"
	redispkg "Watchtower/internal/pkg/redis"
	"Watchtower/internal/pkg/security"
	"context"
	log "log/slog"
)

// AuthService 单管理员认证：账号配置在 configs 里，密码存 bcrypt 哈希。
// 登出把 token 签名写入 redis 吊销名单，有效期与 token 寿命一致。
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, tokenString string) error
}

type authServiceImpl struct {
	admin config.AdminConfig
}

func NewAuthService(admin config.AdminConfig) AuthService {
	return &authServiceImpl{admin: admin}
}

func (s *authServiceImpl) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingLoginCredentials
	}

	if username != s.admin.Username {
		return "", ErrPasswordIncorrect
	}
	if err := security.CheckPasswordHash(password, s.admin.PasswordHash); err != nil {
		log.WarnContext(ctx, "admin login rejected", "username", username)
		return "", ErrPasswordIncorrect
	}

	token, err := security.GenerateToken(username, []string{"admin"})
	if err != nil {
		return "", err
	}

	log.InfoContext(ctx, "admin logged in", "username", username)
	return token, nil
}

func (s *authServiceImpl) Logout(ctx context.Context, tokenString string) error {
	signature, err := security.ExtractSignature(tokenString)
	if err != nil {
		return UnauthorizedError
	}

	err = redispkg.SetWithExpiration(ctx, consts.TokenRevokedKey+signature, "1", security.JWTExpirationTime)
	if err != nil {
		log.ErrorContext(ctx, "revoke token failed", "err", err)
		return err
	}
	return nil
}
