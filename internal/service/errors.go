package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid            = errors.New("参数错误")
	ErrMissingLoginCredentials = errors.New("缺少登录凭据")
	ErrPasswordIncorrect       = errors.New("用户名或密码错误")
	ErrOrgNotFound             = errors.New("组织不存在")
	ErrOrgSlugExist            = errors.New("组织标识已存在")
	ErrSyncAlreadyRunning      = errors.New("同步任务正在进行中")
	ErrSyncInCooldown          = errors.New("外部 API 冷却中，本轮跳过")
	UnauthorizedError          = errors.New("权限不足")
	UnExpectedError            = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:            BadRequest,
	ErrMissingLoginCredentials: Unauthorized,
	ErrPasswordIncorrect:       Unauthorized,
	ErrOrgNotFound:             NotFound,
	ErrOrgSlugExist:            BadRequest,
	ErrSyncAlreadyRunning:      Conflict,
	ErrSyncInCooldown:          Conflict,
	UnauthorizedError:          Unauthorized,
	UnExpectedError:            InternalServerError,
}
