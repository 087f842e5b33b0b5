// Package config provides configuration for the economic data system.
package config

const (
	// MetricGDPPerCapita is quarterly GDP per capita, chain-linked volumes, PPP.
	MetricGDPPerCapita = "gdp_per_capita"

	// MetricRealGDP is quarterly real GDP, seasonally adjusted, PPP.
	MetricRealGDP = "real_gdp"

	// MetricPopulation is annual population, used for level calculations.
	MetricPopulation = "population"

	// MetricSavingsRate is the household net saving rate in percent of
	// disposable income.
	MetricSavingsRate = "savings_rate"

	// MetricDisposableIncome is household disposable income per capita.
	MetricDisposableIncome = "disposable_income_per_capita"
)
