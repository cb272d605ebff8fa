package emit

import _ "embed"

// Prelude and Epilogue are the fixed textual header/footer every emitted
// module carries: libc-backed implementations of getint/getch/getarray/
// putint/putch/putarray/putstr, and the trailing attribute/metadata block
// clang itself would produce for the same target triple.
//
//go:embed prelude.ll
var Prelude string

//go:embed epilogue.ll
var Epilogue string
