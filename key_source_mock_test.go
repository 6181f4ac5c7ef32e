package nqcrypt

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type KeySourceMock struct {
	mock.Mock
}

func (m *KeySourceMock) MasterKey(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	key, _ := args.Get(0).([]byte)
	return key, args.Error(1)
}
