package repository

import "errors"

var (
	// ErrUserExists возвращается при попытке создать пользователя с уже занятым email.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrInsufficientBalance возвращается, если операция опустила бы баланс ниже нуля.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrBalanceOverflow возвращается, если баланс превысил бы максимальное значение int64.
	ErrBalanceOverflow = errors.New("balance overflow")
)
