package lib

import (
	"github.com/zishang520/socket.io/v2/socket"
)

var socketServer *socket.Server

// NewSocketServer stores the server created at boot so publishers can
// emit without threading it through every call site.
func NewSocketServer(s *socket.Server) {
	socketServer = s
}

func GetSocketServer() *socket.Server {
	return socketServer
}
