package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type progressMessage struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	FailedTasks    int    `json:"failed_tasks"`
}

// JobProgress handles GET /jobs/{id}/progress: upgrades to a websocket and
// pushes the job's status snapshot every tick until it completes or the
// client disconnects, so a caller watching a long-running bulk job doesn't
// have to poll JobStatus.
func (m *Media) JobProgress(w http.ResponseWriter, r *http.Request) {
	id := jobIDFromPath(r.URL.Path, "/jobs/")
	id = trimSuffixPath(id, "/progress")

	record, ok := m.orch.Get(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "job not found: "+id)
		return
	}

	conn, err := progressUpgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn().Err(err).Str("job_id", id).Msg("failed to upgrade progress connection")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		status, state := record.Status()
		msg := progressMessage{
			JobID:          record.ID,
			Status:         string(state),
			TotalTasks:     status.TotalTasks,
			CompletedTasks: status.CompletedTasks,
			FailedTasks:    status.FailedTasks,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
		if status.IsComplete {
			return
		}
		<-ticker.C
	}
}

func trimSuffixPath(s, suffix string) string {
	if len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)]
	}
	return s
}
