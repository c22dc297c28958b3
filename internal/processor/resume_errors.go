package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput 请求字段缺失或非法
	ErrInvalidInput = errors.New("invalid input")
	// ErrFileTooLarge 上传文件超过大小限制
	ErrFileTooLarge = errors.New("file too large")
)

// MatchProcessError 带操作名和记录ID的处理错误，errors.Is 透传到 BaseErr
type MatchProcessError struct {
	Op      string
	ID      string
	BaseErr error
	Detail  string
}

func (e *MatchProcessError) Error() string {
	var msg string
	if e.ID != "" {
		msg = fmt.Sprintf("%s (操作:%s, ID:%s)", e.BaseErr, e.Op, e.ID)
	} else {
		msg = fmt.Sprintf("%s (操作:%s)", e.BaseErr, e.Op)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *MatchProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *MatchProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newProcessError(op, id string, base error, detail string) error {
	return &MatchProcessError{Op: op, ID: id, BaseErr: base, Detail: detail}
}

// Detail 返回错误链中第一个 MatchProcessError 的详情，没有时返回空串
func Detail(err error) string {
	var pe *MatchProcessError
	if errors.As(err, &pe) {
		return pe.Detail
	}
	return ""
}
