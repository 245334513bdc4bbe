//
// parser.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads a circuit description from the argument reader. The
// format is a flat, line-oriented gate list, one record per
// non-empty line:
//
//	<numGates> <numWires>
//	<genInpCount> <evlInpCount>
//	gen_inp <wire>                              (genInpCount times)
//	evl_inp <wire>                              (evlInpCount times)
//	gate1 <kind> <out> <in0> <table2bits>        (1-input gate)
//	gate2 <kind> <out> <in0> <in1> <table4bits>  (2-input gate)
//
// kind is one of int, gen_out, evl_out. Table bit strings list row r
// (indexed by the real boolean input values, not by permutation bit)
// from r=0 to r=len-1, e.g. "0110" for XOR and "0001" for AND.
func Parse(in io.Reader) (*Circuit, error) {
	scanner := bufio.NewScanner(in)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("circuit: truncated header")
	}

	numGates, numWires, err := parseTwoInts(lines[0])
	if err != nil {
		return nil, fmt.Errorf("circuit: header: %v", err)
	}
	genInpCount, evlInpCount, err := parseTwoInts(lines[1])
	if err != nil {
		return nil, fmt.Errorf("circuit: input counts: %v", err)
	}

	c := &Circuit{
		NumGates:    numGates,
		NumWires:    numWires,
		GenInpCount: genInpCount,
		EvlInpCount: evlInpCount,
	}

	var id int
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		g, err := parseGateLine(id, fields)
		if err != nil {
			return nil, fmt.Errorf("circuit: line %d: %v", id+3, err)
		}
		c.Gates = append(c.Gates, g)
		if g.Kind == GenOut {
			c.GenOutCount++
		}
		if g.Kind == EvlOut {
			c.EvlOutCount++
		}
		id++
	}
	if len(c.Gates) != numGates {
		return nil, fmt.Errorf("circuit: expected %d gates, got %d",
			numGates, len(c.Gates))
	}

	c.ComputeStats()
	return c, nil
}

func parseTwoInts(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected two fields, got %d", len(fields))
	}
	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func parseGateLine(id int, fields []string) (Gate, error) {
	switch fields[0] {
	case "gen_inp":
		w, err := parseWire(fields, 1)
		if err != nil {
			return Gate{}, err
		}
		return Gate{ID: id, Kind: GenInp, Input0: NoWire, Input1: NoWire,
			Output: w}, nil
	case "evl_inp":
		w, err := parseWire(fields, 1)
		if err != nil {
			return Gate{}, err
		}
		return Gate{ID: id, Kind: EvlInp, Input0: NoWire, Input1: NoWire,
			Output: w}, nil
	case "gate1":
		if len(fields) != 5 {
			return Gate{}, fmt.Errorf("gate1: expected 4 args, got %d",
				len(fields)-1)
		}
		kind, err := parseKind(fields[1])
		if err != nil {
			return Gate{}, err
		}
		out, err := parseWire(fields, 2)
		if err != nil {
			return Gate{}, err
		}
		in0, err := parseWire(fields, 3)
		if err != nil {
			return Gate{}, err
		}
		table, err := parseTable(fields[4], 2)
		if err != nil {
			return Gate{}, err
		}
		return Gate{ID: id, Kind: kind, Table: table, Input0: in0,
			Input1: NoWire, Output: out}, nil
	case "gate2":
		if len(fields) != 6 {
			return Gate{}, fmt.Errorf("gate2: expected 5 args, got %d",
				len(fields)-1)
		}
		kind, err := parseKind(fields[1])
		if err != nil {
			return Gate{}, err
		}
		out, err := parseWire(fields, 2)
		if err != nil {
			return Gate{}, err
		}
		in0, err := parseWire(fields, 3)
		if err != nil {
			return Gate{}, err
		}
		in1, err := parseWire(fields, 4)
		if err != nil {
			return Gate{}, err
		}
		table, err := parseTable(fields[5], 4)
		if err != nil {
			return Gate{}, err
		}
		return Gate{ID: id, Kind: kind, Table: table, Input0: in0,
			Input1: in1, Output: out}, nil
	default:
		return Gate{}, fmt.Errorf("unknown record type %q", fields[0])
	}
}

func parseKind(s string) (GateKind, error) {
	switch s {
	case "int":
		return Internal, nil
	case "gen_out":
		return GenOut, nil
	case "evl_out":
		return EvlOut, nil
	default:
		return 0, fmt.Errorf("unknown gate kind %q", s)
	}
}

func parseWire(fields []string, idx int) (Wire, error) {
	v, err := strconv.Atoi(fields[idx])
	if err != nil {
		return 0, fmt.Errorf("invalid wire %q: %v", fields[idx], err)
	}
	return Wire(v), nil
}

func parseTable(s string, rows int) (byte, error) {
	if len(s) != rows {
		return 0, fmt.Errorf("table %q: expected %d bits, got %d",
			s, rows, len(s))
	}
	var table byte
	for r := 0; r < rows; r++ {
		switch s[r] {
		case '0':
		case '1':
			table |= 1 << uint(r)
		default:
			return 0, fmt.Errorf("table %q: invalid bit %q", s, s[r])
		}
	}
	return table, nil
}
