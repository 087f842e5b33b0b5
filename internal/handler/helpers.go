package handler

import (
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// healthResponse reports host and process resource usage alongside liveness.
type healthResponse struct {
	Status         string  `json:"status"`
	TotalMemory    uint64  `json:"total_memory"`
	FreeMemory     uint64  `json:"free_memory"`
	CPUUtilization float64 `json:"cpu_utilization"`
	Goroutines     int     `json:"goroutines"`
}

func HealthHandler(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger) {
	response := healthResponse{
		Status:     "ok",
		Goroutines: runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		logger.Warnf("couldn't read memory stats: %v", err)
	} else {
		response.TotalMemory = vm.Total
		response.FreeMemory = vm.Free
	}

	if percentages, err := cpu.Percent(0, false); err != nil {
		logger.Warnf("couldn't read cpu stats: %v", err)
	} else if len(percentages) > 0 {
		response.CPUUtilization = percentages[0]
	}

	writeJSON(w, http.StatusOK, response)
}
