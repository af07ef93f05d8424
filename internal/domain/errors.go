package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated 账号或密码错误
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrUnsupported     = errors.New("not supported by this deployment")
	// ErrUnavailable 表/函数不存在一类的错误（用于兼容降级）
	ErrUnavailable = errors.New("store unavailable")
)

// ValidationError 确认数据缺失或不合法，未写入任何数据
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func Invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// TransitionDeniedError 阶段流转被规则拒绝，Msg 面向用户
type TransitionDeniedError struct {
	From string
	To   string
	Msg  string
}

func (e *TransitionDeniedError) Error() string { return e.Msg }

// PersistenceError 主存储读写失败
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// Persist 包装存储错误；nil 原样返回，ErrNotFound 等哨兵保持可识别
func Persist(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
