package app

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Settings
	r.HandleFunc("/api/settings/allowance", deps.SettingsHandler.GetAllowanceRules).Methods("GET")
	r.HandleFunc("/api/settings/allowance", deps.SettingsHandler.UpdateAllowanceRules).Methods("PUT")

	// Attendance
	r.HandleFunc("/api/interns/{internId:[0-9]+}/attendance", deps.AttendanceHandler.RecordEntry).Methods("POST")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/attendance/breakdown", deps.AttendanceHandler.GetBreakdown).Methods("GET")

	// Claims
	r.HandleFunc("/api/interns/{internId:[0-9]+}/claims", deps.AllowanceHandler.ListClaims).Methods("GET")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/claims/{periodKey}", deps.AllowanceHandler.GetClaim).Methods("GET")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/claims/{periodKey}/supervisor-adjustment", deps.AllowanceHandler.UpsertSupervisorAdjustment).Methods("PUT")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/claims/{periodKey}/admin-adjustment", deps.AllowanceHandler.UpsertAdminAdjustment).Methods("PUT")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/claims/{periodKey}/approval", deps.AllowanceHandler.ApproveClaim).Methods("POST")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/claims/{periodKey}/payment", deps.AllowanceHandler.MarkPaid).Methods("POST")

	// Wallet
	r.HandleFunc("/api/interns/{internId:[0-9]+}/wallet", deps.WalletHandler.GetWallet).Methods("GET")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/wallet/sync", deps.WalletHandler.Sync).Methods("POST")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/wallet/sync", deps.WalletHandler.GetSyncLock).Methods("GET")
	r.HandleFunc("/api/interns/{internId:[0-9]+}/wallet/sync", deps.WalletHandler.ReleaseStuckSync).Methods("DELETE")

	// Metrics
	r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})).Methods("GET")
}
