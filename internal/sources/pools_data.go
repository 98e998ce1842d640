package sources

// stateCapitals lists the capital city of each of the fifty states.
var stateCapitals = []string{
	"Montgomery", "Juneau", "Phoenix", "Little Rock", "Sacramento", "Denver", "Hartford",
	"Dover", "Tallahassee", "Atlanta", "Honolulu", "Boise", "Springfield", "Indianapolis",
	"Des Moines", "Topeka", "Frankfort", "Baton Rouge", "Augusta", "Annapolis", "Boston",
	"Lansing", "Saint Paul", "Jackson", "Jefferson City", "Helena", "Lincoln",
	"Carson City", "Concord", "Trenton", "Santa Fe", "Albany", "Raleigh", "Bismarck",
	"Columbus", "Oklahoma City", "Salem", "Harrisburg", "Providence", "Columbia", "Pierre",
	"Nashville", "Austin", "Salt Lake City", "Montpelier", "Richmond", "Olympia",
	"Charleston", "Madison", "Cheyenne",
}

// presidents lists U.S. presidents in order of first term.
var presidents = []string{
	"George Washington", "John Adams", "Thomas Jefferson", "James Madison", "James Monroe",
	"John Quincy Adams", "Andrew Jackson", "Martin Van Buren", "William Henry Harrison",
	"John Tyler", "James K. Polk", "Zachary Taylor", "Millard Fillmore", "Franklin Pierce",
	"James Buchanan", "Abraham Lincoln", "Andrew Johnson", "Ulysses S. Grant",
	"Rutherford B. Hayes", "James A. Garfield", "Chester A. Arthur", "Grover Cleveland",
	"Benjamin Harrison", "William McKinley", "Theodore Roosevelt", "William Howard Taft",
	"Woodrow Wilson", "Warren G. Harding", "Calvin Coolidge", "Herbert Hoover",
	"Franklin D. Roosevelt", "Harry S. Truman", "Dwight D. Eisenhower", "John F. Kennedy",
	"Lyndon B. Johnson", "Richard Nixon", "Gerald Ford", "Jimmy Carter", "Ronald Reagan",
	"George H. W. Bush", "Bill Clinton", "George W. Bush", "Barack Obama", "Donald Trump",
	"Joe Biden",
}
