package minerva

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Testing mock for DefinitionStore
type MockDefinitionStore struct {
	documents map[string]json.RawMessage
	failSave  error
	mutex     *sync.Mutex
}

func NewMockDefinitionStore() *MockDefinitionStore {
	return &MockDefinitionStore{
		documents: make(map[string]json.RawMessage),
		mutex:     &sync.Mutex{},
	}
}

// FailSaves makes every following Save return err
func (m *MockDefinitionStore) FailSaves(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failSave = err
}

func (m *MockDefinitionStore) Save(env, filename string, definitions json.RawMessage) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.failSave != nil {
		return "", m.failSave
	}
	m.documents[env+"/"+filename] = definitions
	return "mock:" + env + "/" + filename, nil
}

func (m *MockDefinitionStore) Load(env, filename string) (json.RawMessage, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if definitions, ok := m.documents[env+"/"+filename]; ok {
		return definitions, nil
	}
	return nil, fmt.Errorf("No definitions %s for %s", filename, env)
}
