package core

// error_messages.go maps technical errors to messages an operator can act on.
//
// Codes are grouped by category and can be quoted to support:
//
//	VAL000        form validation (message comes from the form)
//	VAL001-VAL003 data format problems in imported rows
//	DB001-DB007   database constraints and connectivity
//	FILE001-FILE005 uploaded file problems
//	IMP001-IMP003 import run problems
//	REC001        record not found
//	RATE001       request throttling
//	ERR000        anything else; check the logs for the technical error
//
// Sentinel errors are matched with errors.Is first. Remaining errors are
// matched case-insensitively by substring, first match wins, so specific
// patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides operator-facing error information.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrNoData, UserMessage{Message: NoDataMessage, Action: "Envie um arquivo com cabeçalho e ao menos uma linha.", Code: "FILE005"}},
	{ErrUnreadableFile, UserMessage{Message: "Não foi possível ler a planilha.", Action: "Salve o arquivo como .xlsx ou .csv separado por ponto e vírgula.", Code: "FILE002"}},
	{ErrTooManyImports, UserMessage{Message: "Outras importações estão em andamento.", Action: "Aguarde alguns instantes e tente novamente.", Code: "IMP001"}},
	{ErrNotFound, UserMessage{Message: "Registro não encontrado.", Action: "Verifique o identificador informado.", Code: "REC001"}},
	{context.Canceled, UserMessage{Message: "A requisição foi cancelada.", Action: "Tente novamente.", Code: "IMP002"}},
	{context.DeadlineExceeded, UserMessage{Message: "A operação excedeu o tempo limite.", Action: "Tente um arquivo menor ou tente mais tarde.", Code: "IMP003"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Database constraints (DB001-DB003)
	// =========================================================================
	{"duplicate key", UserMessage{Message: "Já existe um registro com esta chave.", Action: "Revise matrícula, CPF ou ID.Posto duplicados.", Code: "DB001"}},
	{"violates unique", UserMessage{Message: "Valor duplicado encontrado.", Action: "Revise os valores que devem ser únicos.", Code: "DB002"}},
	{"unique constraint", UserMessage{Message: "Valor duplicado encontrado.", Action: "Revise os valores que devem ser únicos.", Code: "DB002"}},
	{"violates foreign key", UserMessage{Message: "O registro referenciado não existe.", Action: "Cadastre o colaborador ou posto antes.", Code: "DB003"}},
	{"foreign key constraint", UserMessage{Message: "O registro referenciado não existe.", Action: "Cadastre o colaborador ou posto antes.", Code: "DB003"}},

	// =========================================================================
	// Database connectivity (DB004-DB007)
	// =========================================================================
	{"connection refused", UserMessage{Message: "Não foi possível conectar ao banco de dados.", Action: "Tente novamente em alguns instantes.", Code: "DB004"}},
	{"connection reset", UserMessage{Message: "A conexão com o banco foi interrompida.", Action: "Tente novamente.", Code: "DB005"}},
	{"timeout", UserMessage{Message: "A operação excedeu o tempo limite.", Action: "Tente novamente mais tarde.", Code: "DB006"}},
	{"deadlock", UserMessage{Message: "O banco estava ocupado com operações conflitantes.", Action: "Tente novamente.", Code: "DB007"}},

	// =========================================================================
	// Row data (VAL001-VAL003)
	// =========================================================================
	{"invalid date", UserMessage{Message: "Data em formato inválido.", Action: "Use AAAA-MM-DD ou DD/MM/AAAA.", Code: "VAL001"}},
	{"invalid input syntax for type date", UserMessage{Message: "Data em formato inválido.", Action: "Use AAAA-MM-DD ou DD/MM/AAAA.", Code: "VAL001"}},
	{"invalid number", UserMessage{Message: "Número em formato inválido.", Action: "Informe apenas dígitos.", Code: "VAL002"}},
	{"required field", UserMessage{Message: "Campo obrigatório vazio.", Action: "Preencha todas as colunas obrigatórias.", Code: "VAL003"}},

	// =========================================================================
	// Upload (FILE001-FILE004)
	// =========================================================================
	{"request body too large", UserMessage{Message: "O arquivo excede o tamanho máximo permitido.", Action: "Divida o arquivo em partes menores.", Code: "FILE001"}},
	{"file too large", UserMessage{Message: "O arquivo excede o tamanho máximo permitido.", Action: "Divida o arquivo em partes menores.", Code: "FILE001"}},
	{"no such file", UserMessage{Message: "Nenhum arquivo selecionado.", Action: "Selecione um arquivo .csv ou .xlsx.", Code: "FILE004"}},
	{"no file provided", UserMessage{Message: "Nenhum arquivo selecionado.", Action: "Selecione um arquivo .csv ou .xlsx.", Code: "FILE004"}},

	// =========================================================================
	// Throttling (RATE001)
	// =========================================================================
	{"rate limit", UserMessage{Message: "Muitas requisições.", Action: "Aguarde um momento antes de tentar novamente.", Code: "RATE001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "Ocorreu um erro inesperado.",
	Action:  "Tente novamente ou contate o suporte.",
	Code:    "ERR000",
}

// validationAction accompanies form validation messages.
const validationAction = "Corrija o campo indicado e tente novamente."

// MapError converts a technical error to an operator-facing message.
// Validation errors keep their own message; sentinels are matched next,
// then the substring patterns, then the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve ValidationError
	if errors.As(err, &ve) {
		return UserMessage{Message: ve.Message, Action: validationAction, Code: "VAL000"}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Código: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its mapped message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err and wraps it. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
