package divhist

import "io"

var Stem = stem

func KindFromText(r io.Reader) Kind { return kindFromText(r) }
