package b

func getchar() int { return 1 }

func possible(n int) int {
	return 10 / n
}

func definite(n int) int {
	zero := n - n
	return 10 / (zero * 0) // want `division by zero: divisor t\d+ is always zero`
}

func input() int {
	return 1 / getchar()
}
