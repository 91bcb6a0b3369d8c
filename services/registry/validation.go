// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package registry

import (
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"reflect"
	"strings"
)

type RegisterProductRequest struct {
	Name        string `json:"name" validate:"required,max=256"`
	Description string `json:"description" validate:"required,max=1024"`
}

type TransferRequest struct {
	ProductId uint64 `json:"productId" validate:"min=1"`
	Recipient string `json:"recipient" validate:"required,eth_addr"`
}

type ReceiveRequest struct {
	ProductId uint64 `json:"productId" validate:"min=1"`
}

type RegisterUserRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
	Role    string `json:"role" validate:"required"`
	Name    string `json:"name" validate:"required,max=256"`
}

// ValidationError rejects malformed input before any ledger call
type ValidationError struct {
	Field   string
	Problem string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Problem)
}

func IsValidationError(err error) (*ValidationError, bool) {
	validationError, ok := errors.Cause(err).(*ValidationError)
	return validationError, ok
}

type inputValidator struct {
	validate *validator.Validate
}

func newInputValidator() *inputValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &inputValidator{validate: validate}
}

func (v *inputValidator) check(request interface{}) error {
	err := v.validate.Struct(request)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrors) == 0 {
		return errors.Wrap(err, "failed validating request")
	}

	return describe(fieldErrors[0])
}

func describe(fe validator.FieldError) *ValidationError {
	var problem string
	switch fe.Tag() {
	case "required":
		problem = "is required"
	case "min":
		problem = "must be at least " + fe.Param()
	case "max":
		problem = "must be at most " + fe.Param() + " characters"
	case "eth_addr":
		problem = "must be a 0x-prefixed 20 byte hex address"
	default:
		problem = "failed " + fe.Tag() + " check"
	}
	return &ValidationError{Field: fe.Field(), Problem: problem}
}

func (v *inputValidator) registerUser(request *RegisterUserRequest) (common.Address, protocol.Role, error) {
	if err := v.check(request); err != nil {
		return common.Address{}, protocol.ROLE_NONE, err
	}

	role, err := protocol.ParseRole(request.Role)
	if err != nil || !role.Registrable() {
		return common.Address{}, protocol.ROLE_NONE, &ValidationError{Field: "role", Problem: "must be one of MANUFACTURER, DISTRIBUTOR, RETAILER, CUSTOMER or 1..4"}
	}

	return common.HexToAddress(request.Address), role, nil
}
