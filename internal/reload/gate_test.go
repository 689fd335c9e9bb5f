package reload

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockConfirmer is a mock implementation of Confirmer
type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, title, message string) (bool, error) {
	args := m.Called(ctx, title, message)
	return args.Bool(0), args.Error(1)
}

func TestGateApprove(t *testing.T) {
	tests := []struct {
		name      string
		action    Action
		setupMock func(*MockConfirmer)
		wantErr   error
		asked     bool
	}{
		{
			name:    "domain reload passes without prompt",
			action:  ActionDomainReload,
			wantErr: nil,
		},
		{
			name:   "approved compile",
			action: ActionCompileScripts,
			setupMock: func(m *MockConfirmer) {
				m.On("Confirm", mock.Anything, "Compile scripts?", mock.AnythingOfType("string")).Return(true, nil)
			},
			asked: true,
		},
		{
			name:   "declined refresh",
			action: ActionRefreshAssets,
			setupMock: func(m *MockConfirmer) {
				m.On("Confirm", mock.Anything, "Refresh assets?", mock.AnythingOfType("string")).Return(false, nil)
			},
			wantErr: ErrDeclined,
			asked:   true,
		},
		{
			name:   "confirmer failure declines",
			action: ActionCompileAndReload,
			setupMock: func(m *MockConfirmer) {
				m.On("Confirm", mock.Anything, "Compile and reload?", mock.AnythingOfType("string")).Return(false, errors.New("dialog closed"))
			},
			wantErr: ErrDeclined,
			asked:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmer := new(MockConfirmer)
			if tt.setupMock != nil {
				tt.setupMock(confirmer)
			}

			err := NewGate(confirmer).Approve(context.Background(), &Job{Action: tt.action})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			if tt.asked {
				confirmer.AssertExpectations(t)
			} else {
				confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGateWithoutConfirmer(t *testing.T) {
	err := NewGate(nil).Approve(context.Background(), &Job{Action: ActionCompileScripts})
	assert.ErrorIs(t, err, ErrDeclined)

	assert.NoError(t, NewGate(nil).Approve(context.Background(), &Job{Action: ActionDomainReload}))
}
