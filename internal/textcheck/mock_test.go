package textcheck

import "github.com/stretchr/testify/mock"

// mockRepairer is a testify mock of Repairer.
type mockRepairer struct {
	mock.Mock
}

func (m *mockRepairer) Badness(text string) (float64, error) {
	args := m.Called(text)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockRepairer) Fix(text string) (string, error) {
	args := m.Called(text)
	return args.String(0), args.Error(1)
}
