// Package fuzztests houses Go fuzz harnesses for the input facing parts of
// covmark: the native report parser, the pragma scanner and the sample
// reader. The goal is to guard against panics, hangs and broken index
// invariants on arbitrary bytes.
//
// Назначение: гонять произвольные байты через report.Parse, pragma.ApplyLines
// и aggregate.ParseSamples и проверять инварианты через testkit.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/report, internal/pragma, internal/aggregate,
// internal/cover, internal/diag, internal/testkit.
package fuzztests
