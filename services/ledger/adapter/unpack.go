// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package adapter

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/protocol"
	"math/big"
	"reflect"
)

// abi tuples decode into generated structs whose fields follow the component order

func tupleFields(value interface{}, expected int) (reflect.Value, error) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Errorf("expected a tuple, got %T", value)
	}

	if v.NumField() != expected {
		return reflect.Value{}, errors.Errorf("expected a tuple with %d fields, got %d", expected, v.NumField())
	}

	return v, nil
}

func fieldAddress(v reflect.Value, i int) (common.Address, error) {
	if address, ok := v.Field(i).Interface().(common.Address); ok {
		return address, nil
	}
	return common.Address{}, errors.Errorf("tuple field %d is %s, not an address", i, v.Field(i).Type())
}

func fieldString(v reflect.Value, i int) (string, error) {
	if s, ok := v.Field(i).Interface().(string); ok {
		return s, nil
	}
	return "", errors.Errorf("tuple field %d is %s, not a string", i, v.Field(i).Type())
}

func fieldBool(v reflect.Value, i int) (bool, error) {
	if b, ok := v.Field(i).Interface().(bool); ok {
		return b, nil
	}
	return false, errors.Errorf("tuple field %d is %s, not a bool", i, v.Field(i).Type())
}

func fieldUint8(v reflect.Value, i int) (uint8, error) {
	if n, ok := v.Field(i).Interface().(uint8); ok {
		return n, nil
	}
	return 0, errors.Errorf("tuple field %d is %s, not a uint8", i, v.Field(i).Type())
}

func fieldUint64(v reflect.Value, i int) (uint64, error) {
	return bigToUint64(v.Field(i).Interface())
}

func bigToUint64(value interface{}) (uint64, error) {
	n, ok := value.(*big.Int)
	if !ok || n == nil {
		return 0, errors.Errorf("expected uint256, got %T", value)
	}
	if !n.IsUint64() {
		return 0, errors.Errorf("uint256 value %s does not fit 64 bits", n.String())
	}
	return n.Uint64(), nil
}

func decodeUser(value interface{}) (*protocol.User, error) {
	v, err := tupleFields(value, 4)
	if err != nil {
		return nil, err
	}

	user := &protocol.User{}
	if user.Address, err = fieldAddress(v, 0); err != nil {
		return nil, err
	}
	role, err := fieldUint8(v, 1)
	if err != nil {
		return nil, err
	}
	user.Role = protocol.Role(role)
	if user.Name, err = fieldString(v, 2); err != nil {
		return nil, err
	}
	if user.IsRegistered, err = fieldBool(v, 3); err != nil {
		return nil, err
	}

	return user, nil
}

func decodeProduct(value interface{}) (*protocol.Product, error) {
	v, err := tupleFields(value, 6)
	if err != nil {
		return nil, err
	}

	product := &protocol.Product{}
	if product.Id, err = fieldUint64(v, 0); err != nil {
		return nil, err
	}
	if product.Name, err = fieldString(v, 1); err != nil {
		return nil, err
	}
	if product.Description, err = fieldString(v, 2); err != nil {
		return nil, err
	}
	if product.CurrentOwner, err = fieldAddress(v, 3); err != nil {
		return nil, err
	}
	status, err := fieldUint8(v, 4)
	if err != nil {
		return nil, err
	}
	product.Status = protocol.Stage(status)
	if product.Timestamp, err = fieldUint64(v, 5); err != nil {
		return nil, err
	}

	return product, nil
}

func decodeHistoryEntry(value interface{}) (*protocol.HistoryEntry, error) {
	v, err := tupleFields(value, 3)
	if err != nil {
		return nil, err
	}

	entry := &protocol.HistoryEntry{}
	status, err := fieldUint8(v, 0)
	if err != nil {
		return nil, err
	}
	entry.Status = protocol.Stage(status)
	if entry.Owner, err = fieldAddress(v, 1); err != nil {
		return nil, err
	}
	if entry.Timestamp, err = fieldUint64(v, 2); err != nil {
		return nil, err
	}

	return entry, nil
}

func decodeHistory(value interface{}) ([]*protocol.HistoryEntry, error) {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, errors.Errorf("expected a tuple list, got %T", value)
	}

	entries := make([]*protocol.HistoryEntry, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		entry, err := decodeHistoryEntry(v.Index(i).Interface())
		if err != nil {
			return nil, errors.Wrapf(err, "history entry %d", i)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
