// Package encoding implements the Gorilla XOR float64 column codec used by cycle set payloads.
//
// Rainflow output is dominated by repeated or near-repeated values (quantised amplitudes,
// bin-rounded means, constant weights), which is the case XOR encoding handles best:
// an unchanged value costs a single bit.
//
// See https://www.vldb.org/pvldb/vol8/p1816-teller.pdf for the algorithm.
package encoding
