package protocol

import (
	"github.com/pkg/errors"
)

var (
	// ErrRemote matches every failure reported by the remote agent.
	ErrRemote = errors.New("remote agent error")

	ErrUnknownSession   = errors.New("unknown session")
	ErrDuplicateSession = errors.New("duplicate session")
)

const (
	CodeUnknownSession     = "unknown_session"
	CodeDuplicateSession   = "duplicate_session"
	CodeInvalidDomainValue = "invalid_domain_value"
	CodeInternal           = "internal"
)

var codeErrors = map[string]error{
	CodeUnknownSession:     ErrUnknownSession,
	CodeDuplicateSession:   ErrDuplicateSession,
	CodeInvalidDomainValue: ErrInvalidDomainValue,
}

// RemoteError is a failure decoded from a reply's Status. It matches
// ErrRemote and the sentinel of its code.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return "remote: " + e.Message
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote || (codeErrors[e.Code] != nil && codeErrors[e.Code] == target)
}

// SetErr records err in the status. A nil err leaves it untouched.
func (s *Status) SetErr(err error) {
	if err == nil {
		return
	}
	s.Error = err.Error()
	s.Code = CodeInternal
	for code, target := range codeErrors {
		if errors.Is(err, target) {
			s.Code = code
			break
		}
	}
}

// Err returns the reported failure, or nil if the call succeeded.
func (s Status) Err() error {
	if len(s.Error) == 0 && len(s.Code) == 0 {
		return nil
	}
	return &RemoteError{Code: s.Code, Message: s.Error}
}
