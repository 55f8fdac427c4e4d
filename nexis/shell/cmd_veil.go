package shell

import (
	"errors"
	"strconv"

	"ironveil/nexis/kernel"
)

func registerVeilCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "genpass", Usage: "genpass [n]", Desc: "Generate random passwords.", Run: cmdGenpass},
		{Name: "ip", Usage: "ip", Desc: "Show a fresh decoy IPv4 address.", Run: cmdIP},
		{Name: "mac", Usage: "mac", Desc: "Show a fresh decoy MAC address.", Run: cmdMAC},
		{Name: "vpn", Usage: "vpn", Desc: "Toggle the decoy VPN tunnel.", Run: cmdVPN},
		{Name: "sdel", Usage: "sdel <file>", Desc: "Overwrite a file with noise, then remove it.", Run: cmdSdel},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdGenpass(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	n := 1
	switch len(args) {
	case 0:
	case 1:
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 || v > 16 {
			return errors.New("count must be 1..16")
		}
		n = v
	default:
		return errors.New("usage: genpass [n]")
	}
	for i := 0; i < n; i++ {
		out.print(k.Rand().Password() + "\n")
	}
	return nil
}

func cmdIP(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: ip")
	}
	out.print(k.Rand().FakeIPv4() + "\n")
	return nil
}

func cmdMAC(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: mac")
	}
	out.print(k.Rand().FakeMAC() + "\n")
	return nil
}

func cmdVPN(s *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 0 {
		return errors.New("usage: vpn")
	}
	if s.vpnUp {
		s.vpnUp = false
		out.printf("vpn: tunnel down (was %s)\n", s.vpnExit)
		return nil
	}
	s.vpnUp = true
	s.vpnExit = k.Rand().FakeIPv4()
	out.printf("vpn: tunnel up, exit node %s\n", s.vpnExit)
	return nil
}

func cmdSdel(_ *Shell, k *kernel.Kernel, args []string, out *output) error {
	if len(args) != 1 {
		return errors.New("usage: sdel <file>")
	}
	name := args[0]
	size, err := k.FS().Size(name)
	if err != nil {
		return err
	}
	if size > 0 {
		noise := make([]byte, size)
		k.Rand().Fill(noise)
		if err := k.FS().Write(name, noise); err != nil {
			return err
		}
	}
	if err := k.FS().Remove(name); err != nil {
		return err
	}
	out.printf("%s: %d byte(s) shredded\n", name, size)
	return nil
}
