package models

import (
	"errors"
	"fmt"
)

/* NotFoundError */

var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (*NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

/* UnauthorizedError */

var ErrUnauthorized = errors.New("unauthorized")

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized %s", e.Message)
}

func (*UnauthorizedError) Unwrap() error {
	return ErrUnauthorized
}

func NewUnauthorizedError(message string) error {
	return &UnauthorizedError{Message: message}
}

/* BadRequestError */

var ErrBadRequest = errors.New("bad request")

type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("bad request: %s", e.Message)
}

func (*BadRequestError) Unwrap() error {
	return ErrBadRequest
}

func NewBadRequestError(message string) error {
	return &BadRequestError{Message: message}
}

/* StepFailedError */

var ErrStepFailed = errors.New("deploy step failed")

type StepFailedError struct {
	Step string
	Err  error
}

func (e *StepFailedError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepFailedError) Unwrap() error {
	return ErrStepFailed
}

func NewStepFailedError(step string, err error) error {
	return &StepFailedError{Step: step, Err: err}
}
