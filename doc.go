// Package carteira reconstructs the daily value of a Brazilian investment
// portfolio from its cash-flow history and derives time-weighted returns.
// It is designed to be deterministic and fail-soft: external data sources
// feed append-only caches, and a report degrades instrument by instrument
// rather than failing when a source is unavailable.
//
// The core functionalities include:
//   - Valuation Engine: replays buys, sells, dividends and bonus events with
//     weighted-average-cost accounting and values each instrument day by day.
//   - Time-Weighted Returns: daily returns net of same-day external flows,
//     compounded into monthly and cumulative figures, never averaged.
//   - Fixed-Income Models: pre-fixed, CDI-, SELIC- and IPCA-linked growth
//     over a business-day calendar, including semi-annual come-cotas
//     withholding for funds that tax accrued gains.
//   - Treasury Marks: Tesouro Direto bonds valued by published unit prices
//     under a canonical label key tolerant of accents and spelling variants.
//   - Market Data: daily closes for B3 symbols with currency conversion for
//     instruments quoted in foreign currency.
//
// This package serves as the foundational logic for the `carteira`
// command-line tool, ensuring that all reports are consistent and based on a
// single source of truth.
package carteira
