package handlers

import (
	"net/http"

	"github.com/wkdrbwnd2/math-lecture-video-generator-sub000/pkg/common/response"
)

type ProgramInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Extension   string `json:"extension"`
	TimeoutMs   int64  `json:"timeout_ms"`
}

func (hr *HandlerRepo) ListProgramsHandler(w http.ResponseWriter, r *http.Request) {
	defs := hr.registry.All()
	infos := make([]ProgramInfo, 0, len(defs))
	for _, d := range defs {
		infos = append(infos, ProgramInfo{
			ID:          d.ID,
			DisplayName: d.DisplayName,
			Extension:   d.FileExtension,
			TimeoutMs:   d.Timeout.Milliseconds(),
		})
	}

	response.JSON(w, http.StatusOK, infos, false, "list programs successfully")
}
