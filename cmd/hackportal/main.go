package main

import "hackportal/internal/initializers"

func main() {
	initializers.RunPortal()
}
