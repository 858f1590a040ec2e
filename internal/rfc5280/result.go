package rfc5280

// Code identifies a class of compliance defect.
type Code string

const (
	CodeInvalidVersion               Code = "InvalidVersion"
	CodeInvalidSerialNumber          Code = "InvalidSerialNumber"
	CodeUnknownSignatureAlgorithm    Code = "UnknownSignatureAlgorithm"
	CodeEmptyIssuer                  Code = "EmptyIssuer"
	CodeInvalidValidityWindow        Code = "InvalidValidityWindow"
	CodeNotYetValid                  Code = "NotYetValid"
	CodeExpired                      Code = "Expired"
	CodeEmptySubjectWithoutSAN       Code = "EmptySubjectWithoutSan"
	CodeUnknownCriticalExtension     Code = "UnknownCriticalExtension"
	CodeMissingBasicConstraintsForCA Code = "MissingBasicConstraintsForCa"
	CodeBasicConstraintsNotCritical  Code = "BasicConstraintsNotCritical"
	CodeCAFlagMismatch               Code = "CaFlagMismatch"
	CodeEmptySAN                     Code = "EmptySubjectAlternativeName"
)

// Issue is a single compliance finding, blocking or advisory depending on
// which list it lands in.
type Issue struct {
	Code    Code
	Message string
}

// Result accumulates every finding from one validation pass. Checks never
// short-circuit, so the caller sees the complete defect list at once.
type Result struct {
	Errors   []Issue
	Warnings []Issue
	Metadata Metadata
}

// IsValid reports whether the certificate passed every blocking check.
// Warnings never affect validity.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *Result) addError(code Code, message string) {
	r.Errors = append(r.Errors, Issue{Code: code, Message: message})
}

func (r *Result) addWarning(code Code, message string) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Message: message})
}

// HasError reports whether any blocking finding carries the given code.
func (r *Result) HasError(code Code) bool {
	for _, issue := range r.Errors {
		if issue.Code == code {
			return true
		}
	}
	return false
}
