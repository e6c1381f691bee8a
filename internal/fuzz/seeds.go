package fuzztests

import (
	"testing"
)

const (
	maxFuzzInput = 64 << 10 // 64 KiB: больше не нужно, чтобы найти падение
)

var reportSeeds = []string{
	"",
	"FILE: /src/a.cpp\nRES: cuppuu\nPROF: 10,20,30,40,\n",
	"FILE: /src/a.cpp\nRES: cu\nFILE: /src/b.cpp\nRES: uu\nPROF: 1,2,\n",
	"FILE: /src/a.cpp\nFILE: /src/b.cpp\nRES: c\n",
	"FILE: /src/a.cpp\r\nRES: c_c\r\nPROF: 300,1,\r\n",
	"FILE: /src/a.cpp\nRES: c\nPROF: 1,2,3,4,5,6,7,8,\n",
	"FILE: /src/a.cpp\nRES: c\nPROF: x,\n",
	"FILE: rel/a.cpp\nRES: \nPROF: \n",
	"FILE: C:\\src\\A.cpp\nRES: cpu_\nPROF: 0,0,0,0,\n",
	"garbage\nRES: c\nPROF: 1,\n",
}

var pragmaSeeds = []string{
	"int a;\n// DisableCodeCoverage\nint b;\n// EnableCodeCoverage\nint c;\n",
	"#pragma DisableCodeCoverage\nx\n",
	"#  pragma   EnableCodeCoverage // DisableCodeCoverage\n",
	"x // a // DisableCodeCoverage\n",
	"#pragmaDisableCodeCoverage\n",
	"\ufeff// DisableCodeCoverage\r\ny\r\n",
}

var sampleSeeds = []string{
	"5 0\n7 3\n",
	"# comment\n1 1\n+ 0\n1 0\n",
	"+ 1\n",
	"16707566 0\n3 2\n",
	"2 1\n1 0\n",
	"",
}

func addSeeds(f *testing.F, seeds []string) {
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}

func clip(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
