package app

import (
	"github.com/vk/amnis/internal/catalogue"
	"github.com/vk/amnis/internal/config"
	"github.com/vk/amnis/modules/builtin"
	"github.com/vk/amnis/modules/env"
	"github.com/vk/amnis/modules/fetch"
	"github.com/vk/amnis/modules/s3"
	"github.com/vk/amnis/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the amnis binary. builtin goes first so null and echo keep ids 0 and 1.
func coreModules(m *config.Model) []catalogue.Module {
	return []catalogue.Module{
		&builtin.Module{},
		&env.Module{},
		&fetch.Module{Timeout: m.Fetch.Timeout},
		&s3.Module{},
		&socketio.Module{
			Timeout:            m.SocketIO.Timeout,
			InsecureSkipVerify: m.SocketIO.InsecureSkipVerify,
		},
	}
}
