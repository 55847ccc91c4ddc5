package star

// Export some internal functions for testing

var ColName = colName
var IsSpecial = isSpecial

func (d *Document) Shallow() *Document { return d.shallow() }
