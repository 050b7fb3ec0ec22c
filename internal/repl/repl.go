// Package repl implements the shell-like REPL front end: a dispatch table mapping
// command names to handlers, the `load` batch runner, and the `meta`/`fat`/`info`
// diagnostic dumps. None of this adds design value of its own; it exists to exercise
// the fat package honestly from a command line.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"

	pferrors "github.com/zapfs/pseudofat/errors"
	"github.com/zapfs/pseudofat/fat"
)

// errExit is returned by the `exit` command to unwind Run's read loop.
var errExit = fmt.Errorf("exit requested")

var dashLine = strings.Repeat("-", 79)

type handler func(v *fat.Volume, args []string, out io.Writer) error

var dispatch = map[string]handler{
	"help":   cmdHelp,
	"exit":   cmdExit,
	"cp":     cmdCp,
	"mv":     cmdMv,
	"rm":     cmdRm,
	"mkdir":  cmdMkdir,
	"rmdir":  cmdRmdir,
	"ls":     cmdLs,
	"cat":    cmdCat,
	"cd":     cmdCd,
	"pwd":    cmdPwd,
	"info":   cmdInfo,
	"incp":   cmdIncp,
	"outcp":  cmdOutcp,
	"load":   cmdLoad,
	"format": cmdFormat,
	"defrag": cmdDefrag,
	"meta":   cmdMeta,
	"fat":    cmdFat,
}

// Run reads lines from in until EOF or `exit`, dispatching each to the command table
// and writing command output to out, errors to errOut.
func Run(v *fat.Volume, in io.Reader, out io.Writer, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := Dispatch(v, scanner.Text(), out, errOut); err == errExit {
			return nil
		}
	}
	return scanner.Err()
}

// Dispatch parses and executes a single line, translating any resulting error into
// its exact shell-facing message.
func Dispatch(v *fat.Volume, line string, out io.Writer, errOut io.Writer) error {
	err := execute(v, line, out)
	if err == errExit {
		return errExit
	}
	if err != nil {
		fmt.Fprintln(errOut, pferrors.ToShellMessage(err))
		return nil
	}
	return nil
}

func execute(v *fat.Volume, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]

	h, ok := dispatch[name]
	if !ok {
		fmt.Fprintf(out, "Unknown command: %s\n", name)
		fmt.Fprintln(out, "Type 'help' for a list of commands.")
		return nil
	}
	return h(v, args, out)
}

func requireFormatted(v *fat.Volume) error {
	if !v.IsFormatted() {
		return pferrors.ErrInvalidArgument.WithMessage("volume is not formatted; run format first")
	}
	return nil
}

func cmdHelp(v *fat.Volume, args []string, out io.Writer) error {
	fmt.Fprintln(out, "help exit cp mv rm mkdir rmdir ls cat cd pwd info incp outcp load format defrag meta fat")
	return nil
}

func cmdExit(v *fat.Volume, args []string, out io.Writer) error {
	return errExit
}

func cmdMkdir(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 1 {
		return pferrors.ErrInvalidArgument.WithMessage("mkdir <path>")
	}
	if err := v.Mkdir(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdRmdir(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 1 {
		return pferrors.ErrInvalidArgument.WithMessage("rmdir <path>")
	}
	if err := v.Rmdir(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdRm(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 1 {
		return pferrors.ErrInvalidArgument.WithMessage("rm <path>")
	}
	if err := v.Rm(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdCat(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 1 {
		return pferrors.ErrInvalidArgument.WithMessage("cat <path>")
	}
	data, err := v.Cat(args[0])
	if err != nil {
		return err
	}
	out.Write(data)
	fmt.Fprintln(out)
	return nil
}

func cmdCd(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	if err := v.Cd(path); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdPwd(v *fat.Volume, args []string, out io.Writer) error {
	fmt.Fprintln(out, v.Cwd().Path)
	return nil
}

func cmdLs(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}

	csv := false
	path := ""
	for _, a := range args {
		if a == "--csv" {
			csv = true
			continue
		}
		path = a
	}

	entries, err := v.Ls(path)
	if err != nil {
		return err
	}

	if csv {
		text, err := fat.EntriesToCSV(entries)
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		return nil
	}

	for _, e := range entries {
		kind := "<FILE>"
		if e.IsDirectory {
			kind = "<DIR>"
		}
		fmt.Fprintf(out, "%-12s %-6s %10d %10d\n", e.Name, kind, e.Size, e.StartCluster)
	}
	return nil
}

func cmdInfo(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 1 {
		return pferrors.ErrInvalidArgument.WithMessage("info <path>")
	}

	info, err := v.Info(args[0])
	if err != nil {
		return err
	}

	kind := "<FILE>"
	if info.Entry.IsDirectory {
		kind = "<DIR>"
	}

	fmt.Fprintln(out, dashLine)
	fmt.Fprintf(out, "name: %s\n", info.Entry.Name)
	fmt.Fprintf(out, "kind: %s\n", kind)
	fmt.Fprintf(out, "size: %d\n", info.Entry.Size)
	fmt.Fprintf(out, "start_cluster: %d\n", info.Entry.StartCluster)
	fmt.Fprint(out, "chain:")
	for _, c := range info.Chain {
		fmt.Fprintf(out, " %d", (uint32(c)-v.Meta.DataStartAddress)/v.Meta.ClusterSize)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, dashLine)
	return nil
}

func cmdIncp(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 2 {
		return pferrors.ErrInvalidArgument.WithMessage("incp <host_src> <image_dst>")
	}
	if err := v.Incp(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdOutcp(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 2 {
		return pferrors.ErrInvalidArgument.WithMessage("outcp <image_src> <host_dst>")
	}
	if err := v.Outcp(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdCp(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 2 {
		return pferrors.ErrInvalidArgument.WithMessage("cp <image_src> <image_dst>")
	}
	if err := v.Cp(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdMv(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 2 {
		return pferrors.ErrInvalidArgument.WithMessage("mv <image_src> <image_dst>")
	}
	if err := v.Mv(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdDefrag(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	if len(args) != 1 {
		return pferrors.ErrInvalidArgument.WithMessage("defrag <path>")
	}
	if err := v.Defrag(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdFormat(v *fat.Volume, args []string, out io.Writer) error {
	if len(args) != 1 {
		return pferrors.ErrInvalidArgument.WithMessage("format <size>")
	}
	size, err := fat.ParseImageSize(args[0])
	if err != nil {
		return pferrors.ErrInvalidArgument.WrapError(err)
	}
	if err := v.Format(size); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func cmdMeta(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	m := v.Meta
	fmt.Fprintln(out, dashLine)
	fmt.Fprintf(out, "disk_size: %d\n", m.DiskSize)
	fmt.Fprintf(out, "cluster_size: %d\n", m.ClusterSize)
	fmt.Fprintf(out, "cluster_count: %d\n", m.ClusterCount)
	fmt.Fprintf(out, "fat_start_address: %d\n", m.FATStartAddress)
	fmt.Fprintf(out, "fat_size: %d\n", m.FATSize)
	fmt.Fprintf(out, "data_start_address: %d\n", m.DataStartAddress)
	fmt.Fprintln(out, dashLine)
	return nil
}

func cmdFat(v *fat.Volume, args []string, out io.Writer) error {
	if err := requireFormatted(v); err != nil {
		return err
	}
	fmt.Fprintln(out, dashLine)
	for i := uint32(0); i < v.Meta.ClusterCount; i++ {
		cell, err := v.FATCell(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d: %d\n", i, cell)
	}
	fmt.Fprintln(out, dashLine)
	return nil
}

func cmdLoad(v *fat.Volume, args []string, out io.Writer) error {
	if len(args) != 1 {
		return pferrors.ErrInvalidArgument.WithMessage("load <host_file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return pferrors.ErrNotFound.WrapError(err)
	}

	RunLoad(v, strings.Split(string(data), "\n"), out, out)
	return nil
}

// RunLoad executes every non-blank line against v, echoing a prompt before each and
// continuing past per-command failures. It aggregates every failure into one
// multierror (returned for library callers like tests) and always finishes by writing
// the final "OK" line, matching the batch command's fixed output contract.
func RunLoad(v *fat.Volume, lines []string, out io.Writer, errOut io.Writer) error {
	var result *multierror.Error

	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if trimmed == "" {
			continue
		}

		fmt.Fprintf(out, "%s$ >%s\n", v.Cwd().Path, trimmed)

		err := execute(v, trimmed, out)
		if err == errExit {
			break
		}
		if err != nil {
			fmt.Fprintln(errOut, pferrors.ToShellMessage(err))
			result = multierror.Append(result, err)
		}
	}

	fmt.Fprintln(out, "OK")
	return result.ErrorOrNil()
}
