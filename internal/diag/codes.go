package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Отчёт (report parser)
	ReportInfo            Code = 1000
	ReportSourceMissing   Code = 1001
	ReportMissingRes      Code = 1002
	ReportMissingProf     Code = 1003
	ReportBadProfile      Code = 1004
	ReportProfileOverflow Code = 1005
	ReportDuplicateFile   Code = 1006
	ReportExcluded        Code = 1007
	ReportEmpty           Code = 1008

	// Прагмы
	PragmaInfo       Code = 2000
	PragmaScanFailed Code = 2001
	PragmaUnclosed   Code = 2002

	// Сессия
	SessionInfo       Code = 3000
	SessionLoadFailed Code = 3001
	SessionStale      Code = 3002
	SessionCacheError Code = 3003

	// I/O
	IOLoadFileError Code = 4001
)

var codeName = map[Code]string{
	UnknownCode:           "UNKNOWN",
	ReportInfo:            "REP1000",
	ReportSourceMissing:   "REP1001",
	ReportMissingRes:      "REP1002",
	ReportMissingProf:     "REP1003",
	ReportBadProfile:      "REP1004",
	ReportProfileOverflow: "REP1005",
	ReportDuplicateFile:   "REP1006",
	ReportExcluded:        "REP1007",
	ReportEmpty:           "REP1008",
	PragmaInfo:            "PRG2000",
	PragmaScanFailed:      "PRG2001",
	PragmaUnclosed:        "PRG2002",
	SessionInfo:           "SES3000",
	SessionLoadFailed:     "SES3001",
	SessionStale:          "SES3002",
	SessionCacheError:     "SES3003",
	IOLoadFileError:       "IO4001",
}

var codeDescription = map[Code]string{
	ReportSourceMissing:   "Source file referenced by the report does not exist",
	ReportMissingRes:      "File block is missing its RES: line",
	ReportMissingProf:     "File block has no PROF: line",
	ReportBadProfile:      "Malformed profile stream",
	ReportProfileOverflow: "Profile stream is longer than the file",
	ReportDuplicateFile:   "File appears more than once in the report",
	ReportExcluded:        "File block skipped by exclude filter",
	ReportEmpty:           "Report contains no file blocks",
	PragmaScanFailed:      "Source file could not be scanned for coverage pragmas",
	PragmaUnclosed:        "Coverage stays disabled until end of file",
	SessionLoadFailed:     "Report could not be loaded; keeping previous data",
	SessionStale:          "Source file is newer than the coverage report",
	SessionCacheError:     "Report cache is unavailable",
	IOLoadFileError:       "I/O error",
}

func (c Code) ID() string {
	if name, ok := codeName[c]; ok {
		return name
	}
	return fmt.Sprintf("E%04d", uint16(c))
}

func (c Code) Title() string {
	return codeDescription[c]
}

func (c Code) String() string {
	return c.ID()
}
