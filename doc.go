// Package lirashield computes inflation-adjusted ("real") returns of a Turkish
// lira portfolio. Every position is measured against two independent inflation
// proxies: the USD/TRY exchange rate and the official monthly CPI.
//
// The package is the computation core of the `lirashield` command-line tool:
//   - Market: an in-memory snapshot of fund prices, USD/TRY rates and CPI
//     prints, queried with an explicit exact or as-of lookup mode.
//   - InflationCalculator: cumulative change of each benchmark between two
//     dates, pro-rating monthly CPI prints by day.
//   - Decompose: nominal return after tax and the real return against each
//     benchmark for a single lot.
//   - FIFOLedger: first-in first-out matching of sells against buys, producing
//     open and realized lots.
//   - Analyze: drives all of the above over a transaction list and rolls lots
//     up into weighted per-ticker and portfolio summaries.
//
// The core performs no I/O. Persistence lives in the store package, price
// providers in tefas and yahoo, and presentation in renderer.
package lirashield
