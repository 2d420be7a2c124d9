package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Семантические: повторная проверка в бэкенде
	SemaInfo                 Code = 3000
	SemaTypeMismatch         Code = 3001
	SemaLiteralOutOfRange    Code = 3002
	SemaPossibleTruncation   Code = 3003
	SemaFixedRangeOverflow   Code = 3004
	SemaSignReinterpretation Code = 3005
	SemaMissingEntry         Code = 3006
	SemaRecursiveCall        Code = 3007
	SemaArityMismatch        Code = 3008
	SemaDuplicateData        Code = 3009
	SemaBadAlignment         Code = 3010

	// Ввод-вывод
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IODecodeError   Code = 4002
	IOWriteError    Code = 4003

	// Проект и манифест
	ProjInfo            Code = 5000
	ProjInvalidManifest Code = 5001
	ProjInvalidTarget   Code = 5002

	// Внутренние ошибки бэкенда
	BackendInfo                   Code = 9000
	BackendInternal               Code = 9001
	BackendUnresolvedLabel        Code = 9002
	BackendUnauthorizedConversion Code = 9003
	BackendAllocationCollision    Code = 9004
	BackendOutOfVariableSpace     Code = 9005
	BackendImageTooLarge          Code = 9006
	BackendUnknownSymbol          Code = 9007
	BackendMisplacedJump          Code = 9008
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	SemaInfo:                 "Semantic information",
	SemaTypeMismatch:         "Type mismatch",
	SemaLiteralOutOfRange:    "Literal out of range",
	SemaPossibleTruncation:   "Possible truncation",
	SemaFixedRangeOverflow:   "Fixed-point range overflow",
	SemaSignReinterpretation: "Signed/unsigned reinterpretation",
	SemaMissingEntry:         "Missing entry function",
	SemaRecursiveCall:        "Recursive call shares a static frame",
	SemaArityMismatch:        "Wrong number of arguments",
	SemaDuplicateData:        "Duplicate data block",
	SemaBadAlignment:         "Alignment is not a power of two",

	IOInfo:          "I/O information",
	IOLoadFileError: "I/O load file error",
	IODecodeError:   "Malformed program file",
	IOWriteError:    "I/O write error",

	ProjInfo:            "Project information",
	ProjInvalidManifest: "Invalid project manifest",
	ProjInvalidTarget:   "Invalid target configuration",

	BackendInfo:                   "Backend information",
	BackendInternal:               "Internal compiler error",
	BackendUnresolvedLabel:        "Unresolved label at link time",
	BackendUnauthorizedConversion: "Conversion not authorized by the type rules",
	BackendAllocationCollision:    "Address allocation collision",
	BackendOutOfVariableSpace:     "Variable region exhausted",
	BackendImageTooLarge:          "Image exceeds address space",
	BackendUnknownSymbol:          "Reference to unknown symbol",
	BackendMisplacedJump:          "break/continue outside of a loop",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("BCK%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Internal reports whether the code marks a compiler bug rather than a user
// error.
func (c Code) Internal() bool {
	return c >= BackendInternal && c < 10000
}
