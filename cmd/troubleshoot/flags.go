package main

import (
	"flag"
	"log"
	"time"

	"github.com/HavvokLab/autarco/api/autarco"
)

// parseFlags parses the startDate, endDate and range flags and returns them.
func parseFlags() (time.Time, time.Time, autarco.QueryRange) {
	startDateStr := flag.String("startDate", "", "Start date in format YYYY-MM-DD")
	endDateStr := flag.String("endDate", "", "End date in format YYYY-MM-DD, exclusive")
	rng := flag.String("range", autarco.QueryRangeMonth.String(), "Energy statistics range covering the dates: week, month or year")
	flag.Parse()

	if *startDateStr == "" || *endDateStr == "" {
		log.Fatal("Both startDate and endDate must be provided.")
	}

	startDate, err := time.Parse(autarco.DateLayout, *startDateStr)
	if err != nil {
		log.Fatalf("Invalid startDate format: %v", err)
	}

	endDate, err := time.Parse(autarco.DateLayout, *endDateStr)
	if err != nil {
		log.Fatalf("Invalid endDate format: %v", err)
	}

	if !startDate.Before(endDate) {
		log.Fatal("startDate must be before endDate.")
	}

	return startDate, endDate, autarco.QueryRange(*rng)
}
