// Package diary is the accounting engine of a margin trade diary.
//
// A Position is a purchase of a single symbol financed on margin: it accrues
// interest every calendar day at its margin rate until it is sold, either at
// once through its exit terms or in several Closures. The engine computes:
//   - the total cost and daily interest of a position, rounded to the cent;
//   - the interest accrued between two dates, under a flat rate or a RateSchedule;
//   - the profit of a single exit, of each closure and of all closures;
//   - a PositionView with every figure of a position as of a date;
//   - statistics over many trades: Summarize, MonthlyProfit, ProfitBySymbol and RateImpact.
//
// Every amount is a decimal Money rounded half away from zero at two decimal
// places, so figures add up to the cent with the ones of a broker statement.
//
// Positions and closures are kept by a Store. Book is the in-memory Store
// replayed from, and appended to, a JSONL journal (see DecodeJournal); the
// store package provides a SQLite one.
package diary
