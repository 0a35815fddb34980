// Package mocks provides test doubles for the store package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/civisort/county-ingest/internal/model"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// InsertMinutes provides a mock function with given fields: ctx, records
func (_m *MockStore) InsertMinutes(ctx context.Context, records []model.MinutesRecord) (int64, error) {
	ret := _m.Called(ctx, records)

	if len(ret) == 0 {
		panic("no return value specified for InsertMinutes")
	}

	var r0 int64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []model.MinutesRecord) (int64, error)); ok {
		return rf(ctx, records)
	}
	r0 = ret.Get(0).(int64)
	r1 = ret.Error(1)

	return r0, r1
}

// InsertPermits provides a mock function with given fields: ctx, records
func (_m *MockStore) InsertPermits(ctx context.Context, records []model.PermitRecord) (int64, error) {
	ret := _m.Called(ctx, records)

	if len(ret) == 0 {
		panic("no return value specified for InsertPermits")
	}

	var r0 int64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []model.PermitRecord) (int64, error)); ok {
		return rf(ctx, records)
	}
	r0 = ret.Get(0).(int64)
	r1 = ret.Error(1)

	return r0, r1
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	return ret.Error(0)
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	return ret.Error(0)
}

// NewMockStore creates a new instance of MockStore.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	mock := &MockStore{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
