package server

import (
	"net/http"

	"isoscreen/internal/gateway/handler"
	"isoscreen/internal/gateway/middleware"
)

func NewMux(
	interviewHandler *handler.InterviewHandler,
	resultsHandler *handler.ResultsHandler,
	logHandler *handler.LogHandler,
	watchHandler *handler.WatchHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/interview/start", interviewHandler.HandleStart)
	mux.HandleFunc("/api/interview/message", interviewHandler.HandleMessage)
	mux.HandleFunc("/api/interview/state", interviewHandler.HandleState)

	mux.HandleFunc("/api/results", resultsHandler.HandleList)
	mux.HandleFunc("/api/results/export.csv", resultsHandler.HandleExportCSV)
	mux.HandleFunc("/api/result", resultsHandler.HandleGet)

	mux.HandleFunc("/api/interview/logs", logHandler.HandleLogs)
	mux.HandleFunc("/api/interview/event", logHandler.HandleEvent)

	mux.HandleFunc("/ws/interview", watchHandler.HandleWS)

	return middleware.CORS(mux)
}
