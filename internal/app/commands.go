package app

import (
	"github.com/viewvolt/extension/internal/dispatcher"
	"github.com/viewvolt/extension/internal/handlers"
)

// Commands the host can send.
const (
	CmdSave      = ":VIEW:SAVE:"
	CmdQuickSave = ":VIEW:QUICKSAVE:"
	CmdAdd       = ":VIEW:ADD:"
	CmdLoad      = ":VIEW:LOAD:"
	CmdDelete    = ":VIEW:DELETE:"
	CmdRename    = ":VIEW:RENAME:"
	CmdList      = ":VIEW:LIST:"
	CmdReload    = ":VIEW:RELOAD:"
)

// RegisterHandlers registers every view command on d.
func RegisterHandlers(d *dispatcher.Dispatcher, svc *handlers.Service) {
	d.Register(CmdSave, func(e dispatcher.Event) (any, error) {
		return nameResult(svc.SaveCurrentView())
	}, dispatcher.Logged())

	d.Register(CmdQuickSave, func(e dispatcher.Event) (any, error) {
		return nameResult(svc.QuickSave())
	}, dispatcher.Logged())

	d.Register(CmdAdd, func(e dispatcher.Event) (any, error) {
		return nameResult(svc.AddView(e.Args))
	}, dispatcher.Logged())

	d.Register(CmdLoad, func(e dispatcher.Event) (any, error) {
		return nil, svc.LoadView(e.Args)
	}, dispatcher.Logged())

	d.Register(CmdDelete, func(e dispatcher.Event) (any, error) {
		removed, err := svc.DeleteView(e.Args)
		if err != nil {
			return nil, err
		}
		return removed, nil
	}, dispatcher.Logged())

	d.Register(CmdRename, func(e dispatcher.Event) (any, error) {
		return nameResult(svc.RenameView(e.Args))
	}, dispatcher.Logged())

	d.Register(CmdList, func(e dispatcher.Event) (any, error) {
		return svc.ListViews(e.Args), nil
	})

	d.Register(CmdReload, func(e dispatcher.Event) (any, error) {
		n, err := svc.Reload()
		if err != nil {
			return nil, err
		}
		return n, nil
	}, dispatcher.Logged())
}

// nameResult drops the empty name returned when the user cancels.
func nameResult(name string, err error) (any, error) {
	if err != nil || name == "" {
		return nil, err
	}
	return name, nil
}
