package model

import "errors"

var (
	ErrInvalidMember = errors.New("invalid member")
	ErrInvalidQuery  = errors.New("invalid search query")
)

var (
	ErrInvalidNote    = errors.New("invalid note")
	ErrInvalidSetting = errors.New("invalid setting")
)
