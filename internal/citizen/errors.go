package citizen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound é retornado quando nenhum registro é encontrado.
var ErrNotFound = errors.New("registro não encontrado")

// Grupos de campos reportados pela validação.
const (
	GroupRequest  = "request"
	GroupPersonal = "personal"
	GroupAddress  = "address"
)

// ValidationError indica entrada ausente ou malformada do chamador.
// Nunca chega à rede nem ao banco: a validação é sempre fail-fast.
type ValidationError struct {
	Group  string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("campos obrigatórios ausentes (%s): %s", e.Group, strings.Join(e.Fields, ", "))
}

// StoreError indica falha na camada de persistência, preservando a causa.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "persistence failed: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
