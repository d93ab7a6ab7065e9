package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Директивы
	DirInfo        Code = 1000
	DirUnknown     Code = 1001
	DirBadArgument Code = 1002
	DirMisplaced   Code = 1003
	DirConflict    Code = 1004

	// Структурные ошибки: объявление не подходит для преобразования
	StrInfo             Code = 2000
	StrNotAsync         Code = 2001
	StrMixedBlock       Code = 2002
	StrNoBody           Code = 2003
	StrEmptyBlock       Code = 2004
	StrMirrorNotFound   Code = 2005
	StrMirrorNotStruct  Code = 2006
	StrMirrorDuplicate  Code = 2007
	StrNamedAsyncResult Code = 2008

	// Ограничения сборки
	BldInfo              Code = 3000
	BldConstraintMissing Code = 3001
	BldFeatureRequired   Code = 3002
	BldBadConstraint     Code = 3003

	// Зеркальные типы
	MirInfo          Code = 4000
	MirFieldMismatch Code = 4001

	// Ввод-вывод
	IOInfo          Code = 5000
	IOLoadFileError Code = 5001
	IOParseError    Code = 5002
	IOWriteError    Code = 5003
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		DirInfo:              "Directive information",
		DirUnknown:           "Unknown syncwrap directive",
		DirBadArgument:       "Invalid directive argument",
		DirMisplaced:         "Directive attached to the wrong declaration",
		DirConflict:          "Conflicting directives",
		StrInfo:              "Structure information",
		StrNotAsync:          "Declaration is not asynchronous",
		StrMixedBlock:        "Implementation block mixes synchronous and asynchronous methods",
		StrNoBody:            "Asynchronous declaration has no body",
		StrEmptyBlock:        "Implementation block has no methods",
		StrMirrorNotFound:    "Mirror type not found",
		StrMirrorNotStruct:   "Mirror can only be declared for struct types",
		StrMirrorDuplicate:   "Mirror type is already declared",
		StrNamedAsyncResult:  "Asynchronous result must be unnamed",
		BldInfo:              "Build information",
		BldConstraintMissing: "Source file is not excluded by the feature tag",
		BldFeatureRequired:   "Replace policy requires a feature tag",
		BldBadConstraint:     "Malformed build constraint",
		MirInfo:              "Mirror information",
		MirFieldMismatch:     "Mirror fields do not match the original",
		IOInfo:               "I/O information",
		IOLoadFileError:      "I/O load file error",
		IOParseError:         "Go syntax error",
		IOWriteError:         "I/O write error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("DIR%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("STR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("BLD%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("MIR%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
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
