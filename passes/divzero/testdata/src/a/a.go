package a

import (
	"bufio"
	"os"
)

func getchar() int {
	var b [1]byte
	os.Stdin.Read(b[:])
	return int(b[0])
}

func input() int {
	return 10 / getchar() // want `possible division by zero: divisor t\d+ may be zero`
}

func zero() int {
	x := 0
	return 10 / x // want `division by zero: divisor 0 is always zero`
}

func param(n int) int {
	return 7 % n // want `possible division by zero: divisor n may be zero`
}

func half(n int) int {
	return n / 2
}

func ratio(f float64) float64 {
	return 1 / f
}

func reader(r *bufio.Reader) int {
	b, _ := r.ReadByte()
	return 10 % int(b) // want `possible division by zero`
}

func nonZero(c bool) int {
	d := 3
	if c {
		d = -4
	}
	return 12 / d
}

func closure() func() int {
	n := getchar()
	return func() int {
		return 1 / n // want `possible division by zero`
	}
}
