// Package numeric holds the decimal handling shared by the variable context,
// the coefficient resolver and the formula interpreter.
//
// Values cross package boundaries as strings (the variable pool contract is
// string based) but all arithmetic runs on decimal.Decimal. Format is the one
// routine used to turn a decimal back into text, so that "2.50" and "2.5"
// always serialize the same way:
//
//	d, ok := numeric.Parse("2.50")
//	numeric.Format(d) // "2.5"
//	numeric.Format(numeric.Round(d, 0)) // "3"
package numeric
