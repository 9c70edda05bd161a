/*
   trustcore - OpenPGP trust-infrastructure core
   Copyright (C) 2012-2025  Hockeypuck Contributors

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published by
   the Free Software Foundation, version 3.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command pgpdump prints a one-line-per-packet summary of an OpenPGP
// packet stream, in the spirit of NeoPG's packet-dump tool.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"trustcore/openpgp"
)

func main() {
	flag.Parse()

	var in *os.File
	if args := flag.Args(); len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			die(errors.WithStack(err))
		}
		defer f.Close()
		in = f
	} else {
		in = os.Stdin
	}

	packets, err := openpgp.ParseAll(in)
	if err != nil {
		die(errors.WithStack(err))
	}
	for i, p := range packets {
		fmt.Printf("#%d %s\n", i, p.Dump())
	}
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}
