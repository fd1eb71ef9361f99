package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/intellihide/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("get status: %w", err)
	}
	return nil, statusOutput(status), nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListMonitorsOutput, error) {
	data, err := s.daemon.GetMonitors()
	if err != nil {
		return nil, ListMonitorsOutput{}, fmt.Errorf("list monitors: %w", err)
	}
	out := ListMonitorsOutput{Monitors: make([]Monitor, 0, len(data.Monitors))}
	for _, m := range data.Monitors {
		out.Monitors = append(out.Monitors, Monitor{
			ID:     m.ID,
			Name:   m.Name,
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		})
	}
	return nil, out, nil
}

func (s *Server) handleSuspend(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.Suspend(); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("suspend: %w", err)
	}
	return nil, s.actionOutput(), nil
}

func (s *Server) handleResume(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.Resume(); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("resume: %w", err)
	}
	return nil, s.actionOutput(), nil
}

func (s *Server) handleSetOnlyActiveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args SetOnlyActiveWindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.SetOnlyActive(args.Active); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("set only_active_window: %w", err)
	}
	return nil, s.actionOutput(), nil
}

func (s *Server) handleReloadConfig(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := s.daemon.Reload(); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("reload: %w", err)
	}
	return nil, s.actionOutput(), nil
}

// actionOutput reports the state after an action. A failing status query
// does not fail the action that already succeeded.
func (s *Server) actionOutput() ActionOutput {
	out := ActionOutput{OK: true}
	status, err := s.daemon.GetStatus()
	if err != nil {
		return out
	}
	out.Visibility = status.Visibility
	out.Suspended = status.Suspended
	return out
}

func statusOutput(status *ipc.StatusData) StatusOutput {
	return StatusOutput{
		Visibility:           status.Visibility,
		Suspended:            status.Suspended,
		OnlyActiveWindow:     status.RestrictedToActiveWindow,
		ConfiguredOnlyActive: status.OnlyActiveWindow,
		FocusApp:             status.FocusApp,
		DockClass:            status.DockClass,
		PresenterMode:        status.PresenterMode,
		Shows:                status.Shows,
		Hides:                status.Hides,
		Recomputes:           status.Recomputes,
		UptimeSeconds:        status.UptimeSeconds,
	}
}
