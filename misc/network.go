package misc

import (
	"errors"
	"net"
)

// Nothing is the request or reply of rpc methods that do not need one.
type Nothing struct{}

// GetFreePort asks the kernel for a tcp port nothing is listening on.
func GetFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}

	port := l.Addr().(*net.TCPAddr).Port

	err = l.Close()
	if err != nil {
		return 0, err
	}

	return port, nil
}

// GetLocalAddress returns the IPv4 address of the first non-loopback network interface that is up.
func GetLocalAddress() (string, error) {
	networkInterfaces, err := net.Interfaces()
	if err != nil {
		return "", errors.New("failed to find network interface on this device")
	}

	for _, elt := range networkInterfaces {
		if elt.Flags&net.FlagLoopback != 0 || elt.Flags&net.FlagUp == 0 {
			continue
		}
		addresses, err := elt.Addrs()
		if err != nil {
			return "", errors.New("failed to get an address from the network interface")
		}
		for _, addr := range addresses {
			if ip, ok := addr.(*net.IPNet); ok {
				if ip4 := ip.IP.To4(); len(ip4) == net.IPv4len {
					return ip4.String(), nil
				}
			}
		}
	}

	return "", errors.New("failed to find a non-loopback interface with valid address on this device")
}

// DefaultAddress joins the local address with port, falling back to the loopback address.
func DefaultAddress(port string) string {
	host, err := GetLocalAddress()
	if err != nil {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
